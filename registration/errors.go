package registration

import "errors"

var (
	// ErrEmailNotVerified is returned by Submit when every field is valid but
	// the email has not passed verification.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrSubmissionInProgress is returned while a submission is pending.
	ErrSubmissionInProgress = errors.New("submission in progress")
	// ErrAttemptCompleted is returned by mutations on a completed attempt.
	ErrAttemptCompleted = errors.New("registration attempt completed")
	// ErrVerificationUnavailable is returned when an OTP is submitted with the
	// verification dialog closed.
	ErrVerificationUnavailable = errors.New("verification not open")
	// ErrAlreadyVerified is returned when the current email is already verified.
	ErrAlreadyVerified = errors.New("email already verified")
)
