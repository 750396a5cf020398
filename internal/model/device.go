package model

import (
	"github.com/google/uuid"
)

// DeviceStatus is the fixed lifecycle enumeration for a repair ticket.
type DeviceStatus string

const (
	StatusReceived DeviceStatus = "received"
	StatusChecking DeviceStatus = "checking"
	StatusInRepair DeviceStatus = "in_repair"
	StatusReady    DeviceStatus = "ready"
	StatusArchived DeviceStatus = "archived"
)

var statusLabels = map[DeviceStatus]string{
	StatusReceived: "Received",
	StatusChecking: "Checking",
	StatusInRepair: "In repair",
	StatusReady:    "Ready",
	StatusArchived: "Delivered",
}

// Valid reports whether s is one of the known lifecycle statuses.
func (s DeviceStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the customer-facing name of the status.
func (s DeviceStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Device is a repair ticket. TrackingCode is the public identifier handed
// to the customer; it is distinct from the internal ID.
type Device struct {
	Base
	TrackingCode    string       `json:"tracking_code" db:"tracking_code"`
	CustomerID      uuid.UUID    `json:"customer_id" db:"customer_id"`
	Brand           *string      `json:"brand,omitempty" db:"brand"`
	Model           string       `json:"model" db:"model"`
	Description     *string      `json:"description,omitempty" db:"description"`
	TechnicianNotes *string      `json:"technician_notes,omitempty" db:"technician_notes"`
	Status          DeviceStatus `json:"status" db:"status"`
	IsArchived      bool         `json:"is_archived" db:"is_archived"`
	CreatedByID     *uuid.UUID   `json:"created_by_id,omitempty" db:"created_by_id"`
	TechnicianID    *uuid.UUID   `json:"technician_id,omitempty" db:"technician_id"`
}

// DeviceFilters narrows device listings.
type DeviceFilters struct {
	// Bucket is one of: active, pending, checking, repair, ready, archive.
	Bucket string
	// UserID matches devices created by or assigned to the user.
	UserID *uuid.UUID
}

// DeviceStats are the dashboard counters.
type DeviceStats struct {
	Total    int `json:"total" db:"total"`
	Checking int `json:"checking" db:"checking"`
	InRepair int `json:"in_repair" db:"in_repair"`
	Ready    int `json:"ready" db:"ready"`
	Archived int `json:"archived" db:"archived"`
}

// RegisterDeviceRequest is the intake payload.
type RegisterDeviceRequest struct {
	CustomerName string  `json:"customer_name" binding:"required"`
	Phone        string  `json:"phone" binding:"required"`
	Email        *string `json:"email,omitempty" binding:"omitempty,email"`
	Brand        *string `json:"brand,omitempty"`
	Model        string  `json:"model" binding:"required"`
	Description  *string `json:"description,omitempty"`
}

// TransitionRequest asks for a status change on a device.
type TransitionRequest struct {
	Status      DeviceStatus `json:"status" binding:"required,devicestatus"`
	PublicNote  string       `json:"public_note"`
	PrivateNote string       `json:"private_note"`
}

// TransitionOutcome distinguishes an applied update from a suppressed
// duplicate. Both are successful from the submitter's point of view.
type TransitionOutcome string

const (
	OutcomeApplied TransitionOutcome = "applied"
	OutcomeIgnored TransitionOutcome = "ignored"
)

// UpdateNotesRequest replaces the private technician notes. No history is
// kept for these.
type UpdateNotesRequest struct {
	TechnicianNotes string `json:"technician_notes"`
}

// DeviceDetails is the staff-facing detail view.
type DeviceDetails struct {
	Device   *Device        `json:"device"`
	Customer *Customer      `json:"customer"`
	Logs     []*TimelineLog `json:"logs"`
}
