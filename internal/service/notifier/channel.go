package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mpetrakis/repair-api/internal/model"
	"github.com/mpetrakis/repair-api/pkg/circuitbreaker"
	"github.com/mpetrakis/repair-api/pkg/errors"
)

// The provider's pre-approved WhatsApp template. Business-initiated
// free-text messages are not deliverable on this channel, so the template
// carries the customer name as its sole placeholder.
const whatsAppTemplateName = "test_whatsapp_template_en"

// Channel delivers one message on one messaging channel. Implementations
// read their own credentials from the settings snapshot and return an
// error describing the failure; they never write logs themselves.
type Channel interface {
	Name() model.NotificationChannel
	Send(ctx context.Context, settings *model.Settings, recipient, message string, customer *model.Customer) error
}

// providerClient is the shared HTTP plumbing for all channels: bounded
// timeout, circuit breaker, provider auth header.
type providerClient struct {
	http *http.Client
	cb   *circuitbreaker.CircuitBreaker
}

func newProviderClient(timeout time.Duration, name string) *providerClient {
	return &providerClient{
		http: &http.Client{Timeout: timeout},
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        name,
			MaxRequests: 5,
			Interval:    30 * time.Second,
			Timeout:     60 * time.Second,
		}),
	}
}

func (c *providerClient) postJSON(ctx context.Context, url, apiKey string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	return c.cb.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return errors.Transport("request build failed", err)
		}
		req.Header.Set("Authorization", "App "+apiKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return errors.Transport("request failed", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.Transport(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))), nil)
	})
}

type smsChannel struct {
	client *providerClient
}

// NewSMSChannel posts to the provider's advanced text endpoint.
func NewSMSChannel(timeout time.Duration) Channel {
	return &smsChannel{client: newProviderClient(timeout, "provider-sms")}
}

func (c *smsChannel) Name() model.NotificationChannel {
	return model.ChannelSMS
}

func (c *smsChannel) Send(ctx context.Context, settings *model.Settings, recipient, message string, _ *model.Customer) error {
	if settings.SMSAPIKey == nil || settings.SMSBaseURL == nil {
		return errors.Configuration("SMS credentials missing")
	}

	sender := settings.SMSSenderID
	if sender == "" {
		sender = "InfoSMS"
	}

	payload := map[string]interface{}{
		"messages": []map[string]interface{}{
			{
				"destinations": []map[string]string{{"to": recipient}},
				"from":         sender,
				"text":         message,
			},
		},
	}

	url := fmt.Sprintf("https://%s/sms/2/text/advanced", *settings.SMSBaseURL)
	return c.client.postJSON(ctx, url, *settings.SMSAPIKey, payload)
}

type whatsAppChannel struct {
	client *providerClient
}

// NewWhatsAppChannel posts a pre-approved template message.
func NewWhatsAppChannel(timeout time.Duration) Channel {
	return &whatsAppChannel{client: newProviderClient(timeout, "provider-whatsapp")}
}

func (c *whatsAppChannel) Name() model.NotificationChannel {
	return model.ChannelWhatsApp
}

func (c *whatsAppChannel) Send(ctx context.Context, settings *model.Settings, recipient, _ string, customer *model.Customer) error {
	if settings.WhatsAppAPIKey == nil || settings.WhatsAppBaseURL == nil {
		return errors.Configuration("WhatsApp credentials missing")
	}

	customerName := "CUSTOMER"
	if customer != nil && customer.Name != "" {
		customerName = strings.ToUpper(customer.Name)
	}

	payload := map[string]interface{}{
		"messages": []map[string]interface{}{
			{
				"from": settings.WhatsAppNumber,
				"to":   recipient,
				"content": map[string]interface{}{
					"templateName": whatsAppTemplateName,
					"templateData": map[string]interface{}{
						"body": map[string]interface{}{
							"placeholders": []string{customerName},
						},
					},
					"language": "en",
				},
			},
		},
	}

	url := fmt.Sprintf("https://%s/whatsapp/1/message/template", *settings.WhatsAppBaseURL)
	return c.client.postJSON(ctx, url, *settings.WhatsAppAPIKey, payload)
}

type viberChannel struct {
	client *providerClient
}

// NewViberChannel posts to the provider's Viber text endpoint.
func NewViberChannel(timeout time.Duration) Channel {
	return &viberChannel{client: newProviderClient(timeout, "provider-viber")}
}

func (c *viberChannel) Name() model.NotificationChannel {
	return model.ChannelViber
}

func (c *viberChannel) Send(ctx context.Context, settings *model.Settings, recipient, message string, _ *model.Customer) error {
	if settings.ViberAPIKey == nil || settings.ViberBaseURL == nil {
		return errors.Configuration("Viber credentials missing")
	}

	payload := map[string]interface{}{
		"from":    settings.ViberSender,
		"to":      recipient,
		"content": map[string]string{"text": message},
	}

	url := fmt.Sprintf("https://%s/viber/1/message/text", *settings.ViberBaseURL)
	return c.client.postJSON(ctx, url, *settings.ViberAPIKey, payload)
}
