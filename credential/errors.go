package credential

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned when an identifier or password fails the
	// format or length rules at login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMalformedOTP is returned when a verification code is not exactly six digits.
	ErrMalformedOTP = errors.New("malformed otp")
	// ErrPasswordMismatch is returned when a confirmation differs from its password.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrValidationFailed is the generic field-level rule violation.
	ErrValidationFailed = errors.New("validation failed")
)

// FieldError names the field whose rule failed. It unwraps to
// ErrValidationFailed.
type FieldError struct {
	Field string
	Rule  string
}

func (e *FieldError) Error() string {
	if e.Rule == "" {
		return fmt.Sprintf("validation failed: %s", e.Field)
	}
	return fmt.Sprintf("validation failed: %s (%s)", e.Field, e.Rule)
}

func (e *FieldError) Unwrap() error {
	return ErrValidationFailed
}

// FieldOf returns the field carried by err when err wraps a *FieldError.
func FieldOf(err error) (string, bool) {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Field, true
	}
	return "", false
}
