package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/mpetrakis/repair-api/internal/model"
)

// Register installs the custom binding validators into gin's validator
// engine. Call once at startup.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("devicestatus", func(fl validator.FieldLevel) bool {
		return model.DeviceStatus(fl.Field().String()).Valid()
	})
}
