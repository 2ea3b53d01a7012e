package model

import "time"

// UserID uniquely identifies a user across the system
type UserID string

// Role is the permission level of a user
type Role string

const (
	RolePlayer Role = "player"
	RoleAdmin  Role = "admin"
)

// DeactivationReason records why an account is inactive
type DeactivationReason string

const (
	DeactivationNone          DeactivationReason = ""
	DeactivationAdminDisabled DeactivationReason = "admin_disabled"
)

// User is a registered account. Only the account and admin services mutate it.
type User struct {
	ID                 UserID
	Name               string
	Phone              string
	PasswordHash       string // bcrypt hash
	Role               Role
	IsActive           bool
	DeactivationReason DeactivationReason
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsAdmin returns true if the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DisabledByAdmin returns true if an administrator deactivated the account
func (u *User) DisabledByAdmin() bool {
	return u.DeactivationReason == DeactivationAdminDisabled
}

// Session is an opaque credential issued at login
type Session struct {
	Token     string
	UserID    UserID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// VerificationCode is a pending phone verification
type VerificationCode struct {
	Phone     string
	Code      string
	ExpiresAt time.Time
}
