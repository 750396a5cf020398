package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusProcessed OutboxStatus = "processed"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// Outbox event types emitted by the device handlers.
const (
	EventDeviceRegistered    = "DEVICE_REGISTERED"
	EventDeviceStatusChanged = "DEVICE_STATUS_CHANGED"
)

type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	RetryAt      *time.Time      `db:"retry_at" json:"retry_at,omitempty"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// StatusChangedEvent is the payload of EventDeviceStatusChanged.
type StatusChangedEvent struct {
	DeviceID     uuid.UUID    `json:"device_id"`
	TrackingCode string       `json:"tracking_code"`
	From         DeviceStatus `json:"from"`
	To           DeviceStatus `json:"to"`
	ActorID      *uuid.UUID   `json:"actor_id,omitempty"`
	OccurredAt   time.Time    `json:"occurred_at"`
}
