package notifier

import (
	"strings"

	"github.com/mpetrakis/repair-api/internal/model"
)

// RenderTemplate substitutes the recognized placeholders into a message
// template. Unrecognized or malformed placeholders are left verbatim, so
// rendering never fails; at worst the customer receives the raw template
// text.
func RenderTemplate(template string, device *model.Device, customer *model.Customer) string {
	name := ""
	if customer != nil {
		name = customer.Name
	}
	replacer := strings.NewReplacer(
		"{customer_name}", name,
		"{model}", device.Model,
		"{tracking_id}", device.TrackingCode,
		"{status}", device.Status.Label(),
	)
	return replacer.Replace(template)
}
