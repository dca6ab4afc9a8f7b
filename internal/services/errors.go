package services

// ValidationError marks a user-correctable input problem. Handlers map it
// to a 400 response carrying the message.
type ValidationError struct {
	msg string
}

func (e ValidationError) Error() string { return e.msg }

func validationError(msg string) error { return ValidationError{msg: msg} }

// ErrInvalidEmail is returned when an email fails format validation.
var ErrInvalidEmail = ValidationError{msg: "invalid email address"}

// ErrInvalidRole is returned for roles outside admin/superadmin.
var ErrInvalidRole = ValidationError{msg: "invalid role"}
