package model

// Customer owns zero or more devices. Phone is the natural key: intake
// upserts by phone and refreshes name/email in place.
type Customer struct {
	Base
	Name  string  `json:"name" db:"name"`
	Phone string  `json:"phone" db:"phone"`
	Email *string `json:"email,omitempty" db:"email"`
}
