package auth

import "errors"

// Authentication failure reasons. Handlers map these to distinct HTTP
// statuses; everything else surfaces as a generic internal error.
var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// the two cannot be told apart by a caller.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountLocked is returned while a lockout window is in effect.
	ErrAccountLocked = errors.New("account temporarily locked")

	// ErrAccountDeactivated is returned for accounts with is_active=false.
	ErrAccountDeactivated = errors.New("account deactivated")

	// ErrTokenInvalid covers every token verification failure: expired,
	// malformed, wrong signature, wrong issuer or audience, superseded
	// refresh token, or a token issued before a password change.
	ErrTokenInvalid = errors.New("invalid or expired token")

	// ErrWeakPassword is returned when a password fails the policy check.
	ErrWeakPassword = errors.New("password does not meet strength requirements")
)
