package auth

import "errors"

// Machine-readable codes returned to clients.
const (
	CodeInvalidNames    = "invalid_names"
	CodeInvalidEmail    = "invalid_email"
	CodeInvalidPassword = "invalid_password"
	CodeEmailTaken      = "email_taken"
	CodeUserNotFound    = "user_not_found"
	CodeMissingFields   = "missing_fields"
	CodeInternalError   = "internal_error"
)

var (
	ErrInvalidNames    = errors.New("first and last name are invalid")
	ErrInvalidEmail    = errors.New("email address is invalid")
	ErrInvalidPassword = errors.New("password does not meet strength requirements")
	ErrEmailTaken      = errors.New("email is already registered")

	// ErrUnauthorized covers an unknown account, a wrong password and any
	// token that fails verification.
	ErrUnauthorized = errors.New("unauthorized")

	ErrUserNotFound       = errors.New("no account with that email")
	ErrResetTokenNotFound = errors.New("reset token not found")
)
