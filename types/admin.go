package types

import "time"

// Admin roles. Superadmins may additionally manage other admin accounts.
const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// Admin represents an administrative account in the system.
// It contains identity, lockout, and session metadata.
type Admin struct {
	// ID is the unique identifier of the admin.
	ID int `json:"id" db:"id"`

	// Email is the unique, lowercased login email.
	Email string `json:"email" db:"email"`

	// Name is the admin's display name.
	Name string `json:"name" db:"name"`

	// Role is either "admin" or "superadmin".
	Role string `json:"role" db:"role"`

	// PasswordHash stores the bcrypt hash of the admin's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// IsActive marks whether the account may authenticate. Deactivated
	// accounts fail both login and existing-token checks.
	IsActive bool `json:"is_active" db:"is_active"`

	// LoginAttempts counts consecutive failed logins since the last success.
	LoginAttempts int `json:"-" db:"login_attempts"`

	// LockUntil, when set and in the future, marks the account as
	// temporarily locked. A past value means the lock has expired even if
	// it has not been cleared yet.
	LockUntil *time.Time `json:"-" db:"lock_until"`

	// RefreshToken is the single currently-valid refresh token, or nil when
	// the admin is logged out. It is never exposed in API responses.
	RefreshToken *string `json:"-" db:"refresh_token"`

	// LastLogin is the timestamp of the most recent successful login.
	LastLogin *time.Time `json:"last_login,omitempty" db:"last_login"`

	// PasswordChangedAt is set whenever the password hash changes. Access
	// tokens issued before this moment are rejected.
	PasswordChangedAt *time.Time `json:"-" db:"password_changed_at"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
