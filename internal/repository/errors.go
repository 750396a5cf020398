package repository

import "errors"

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when an insert hits a unique constraint
	// (device tracking code, customer phone, username). Callers retry or
	// fall back to a lookup.
	ErrDuplicate = errors.New("duplicate record")
)
