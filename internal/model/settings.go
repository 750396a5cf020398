package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationChannel identifies a messaging channel at the provider.
type NotificationChannel string

const (
	ChannelSMS      NotificationChannel = "sms"
	ChannelWhatsApp NotificationChannel = "whatsapp"
	ChannelViber    NotificationChannel = "viber"
)

// Default message templates. Placeholders: {customer_name}, {model},
// {tracking_id}, {status}.
const (
	DefaultTemplateRegistration = "Your device {model} with code {tracking_id} has been received. Thank you!"
	DefaultTemplateReady        = "Your device {model} ({tracking_id}) is ready for pickup!"
	DefaultTemplateDelivered    = "Your device {model} was delivered. Thank you for choosing us!"
)

// Settings is the process-wide singleton holding the active channel, the
// per-channel provider credentials and the message templates. It is lazily
// created with defaults on first read.
type Settings struct {
	ID            uuid.UUID           `json:"id" db:"id"`
	ActiveChannel NotificationChannel `json:"active_channel" db:"active_channel"`

	SMSAPIKey   *string `json:"sms_api_key,omitempty" db:"sms_api_key"`
	SMSBaseURL  *string `json:"sms_base_url,omitempty" db:"sms_base_url"`
	SMSSenderID string  `json:"sms_sender_id" db:"sms_sender_id"`

	WhatsAppAPIKey  *string `json:"whatsapp_api_key,omitempty" db:"whatsapp_api_key"`
	WhatsAppBaseURL *string `json:"whatsapp_base_url,omitempty" db:"whatsapp_base_url"`
	WhatsAppNumber  *string `json:"whatsapp_number,omitempty" db:"whatsapp_number"`

	ViberAPIKey  *string `json:"viber_api_key,omitempty" db:"viber_api_key"`
	ViberBaseURL *string `json:"viber_base_url,omitempty" db:"viber_base_url"`
	ViberSender  *string `json:"viber_sender,omitempty" db:"viber_sender"`

	TemplateRegistration string `json:"template_registration" db:"template_registration"`
	TemplateReady        string `json:"template_ready" db:"template_ready"`
	TemplateDelivered    string `json:"template_delivered" db:"template_delivered"`

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Template returns the message template for a trigger, or "" when the
// trigger is unknown.
func (s *Settings) Template(trigger TriggerType) string {
	switch trigger {
	case TriggerRegistration:
		return s.TemplateRegistration
	case TriggerReady:
		return s.TemplateReady
	case TriggerDelivered:
		return s.TemplateDelivered
	}
	return ""
}
