package model

import (
	"time"
)

// User role constants
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// User represents a staff account. It exists for actor attribution on
// timeline entries, technician assignment and the admin gate on settings
// and staff management.
type User struct {
	Base
	Username     string     `json:"username" db:"username"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         string     `json:"role" db:"role"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
}

// LoginRequest is the credentials payload.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse carries an issued access token.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ChangePasswordRequest replaces the caller's password.
type ChangePasswordRequest struct {
	NewPassword     string `json:"new_password" binding:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=NewPassword"`
}

// CreateUserRequest adds a staff account.
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"omitempty,oneof=admin staff"`
}
