package model

import (
	"time"

	"github.com/google/uuid"
)

// TimelineLog is an append-only status event on a device. Rows are never
// mutated or deleted; the customer-facing timeline is derived from them at
// display time.
type TimelineLog struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	DeviceID    uuid.UUID    `json:"device_id" db:"device_id"`
	Status      DeviceStatus `json:"status" db:"status"`
	Note        *string      `json:"note,omitempty" db:"note"`
	PublicNote  *string      `json:"public_note,omitempty" db:"public_note"`
	PrivateNote *string      `json:"private_note,omitempty" db:"private_note"`
	UserID      *uuid.UUID   `json:"user_id,omitempty" db:"user_id"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
}
