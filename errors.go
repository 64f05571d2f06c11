package loginflow

import (
	"errors"

	"github.com/MrEthical07/loginflow/credential"
	"github.com/MrEthical07/loginflow/registration"
	"github.com/MrEthical07/loginflow/session"
)

var (
	// ErrInvalidCredentials is returned by Login when the identifier or
	// password fails the format or length rules.
	ErrInvalidCredentials = credential.ErrInvalidCredentials
	// ErrEmailNotVerified is returned when a registration is submitted before
	// the OTP for the current email succeeded.
	ErrEmailNotVerified = registration.ErrEmailNotVerified
	// ErrMalformedOTP is returned for a code that is not exactly six digits.
	ErrMalformedOTP = credential.ErrMalformedOTP
	// ErrPasswordMismatch is returned when a confirmation differs from its password.
	ErrPasswordMismatch = credential.ErrPasswordMismatch
	// ErrValidationFailed is wrapped by every *FieldError.
	ErrValidationFailed = credential.ErrValidationFailed

	// ErrSubmissionInProgress is returned when a flow is already waiting on
	// its simulated round trip.
	ErrSubmissionInProgress = registration.ErrSubmissionInProgress
	// ErrAttemptCompleted is returned by edits to a finished registration.
	ErrAttemptCompleted = registration.ErrAttemptCompleted
	// ErrVerificationUnavailable is returned when a code or new password is
	// submitted with its dialog closed.
	ErrVerificationUnavailable = registration.ErrVerificationUnavailable
	// ErrAlreadyVerified is returned when the current email is already verified
	// or a reset already succeeded.
	ErrAlreadyVerified = registration.ErrAlreadyVerified
	// ErrStoreUnavailable wraps session store failures.
	ErrStoreUnavailable = session.ErrStoreUnavailable
	// ErrEngineNotReady is returned by a nil or closed Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// FieldError names the form field whose rule failed.
type FieldError = credential.FieldError

// FieldOf returns the field named by err, if any.
func FieldOf(err error) (string, bool) {
	return credential.FieldOf(err)
}

// ErrorKind groups errors by how a caller should react to them.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindInvalidCredentials
	KindEmailNotVerified
	KindMalformedOTP
	KindPasswordMismatch
	KindValidation
	KindConflict
	KindUnavailable
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindEmailNotVerified:
		return "email_not_verified"
	case KindMalformedOTP:
		return "malformed_otp"
	case KindPasswordMismatch:
		return "password_mismatch"
	case KindValidation:
		return "validation_failed"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// KindOf classifies err. A nil error is KindNone; anything unrecognised is
// KindInternal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidCredentials):
		return KindInvalidCredentials
	case errors.Is(err, ErrEmailNotVerified):
		return KindEmailNotVerified
	case errors.Is(err, ErrMalformedOTP):
		return KindMalformedOTP
	case errors.Is(err, ErrPasswordMismatch):
		return KindPasswordMismatch
	case errors.Is(err, ErrValidationFailed):
		return KindValidation
	case errors.Is(err, ErrSubmissionInProgress),
		errors.Is(err, ErrAttemptCompleted),
		errors.Is(err, ErrVerificationUnavailable),
		errors.Is(err, ErrAlreadyVerified):
		return KindConflict
	case errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, ErrEngineNotReady):
		return KindUnavailable
	default:
		return KindInternal
	}
}
