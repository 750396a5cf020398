package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationStatus is the recorded outcome of one dispatch attempt.
type NotificationStatus string

const (
	NotificationStatusSent   NotificationStatus = "SENT"
	NotificationStatusFailed NotificationStatus = "FAILED"
)

// TriggerType selects which message template a dispatch uses.
type TriggerType string

const (
	TriggerRegistration TriggerType = "registration"
	TriggerReady        TriggerType = "ready"
	TriggerDelivered    TriggerType = "delivered"
)

// NotificationLog is an immutable record of a single dispatch attempt.
// MessageContent holds the rendered message on success, or the error detail
// prefixed with "Err: " on failure.
type NotificationLog struct {
	ID             uuid.UUID          `json:"id" db:"id"`
	DeviceID       uuid.UUID          `json:"device_id" db:"device_id"`
	Channel        string             `json:"channel" db:"channel"`
	Status         NotificationStatus `json:"status" db:"status"`
	MessageContent string             `json:"message_content" db:"message_content"`
	CreatedAt      time.Time          `json:"created_at" db:"created_at"`
}
