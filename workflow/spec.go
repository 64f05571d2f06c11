package workflow

import (
	"time"

	"github.com/MrEthical07/loginflow/credential"
)

const (
	// DefaultDelay is the simulated round trip of a submission.
	DefaultDelay = 2 * time.Second
	// DefaultAutoCloseDelay is how long a success stays on screen.
	DefaultAutoCloseDelay = time.Second
)

// Spec parameterises a Process.
//
// Validate runs synchronously on Submit; a nil Validate accepts everything.
// Sensitive inputs are kept out of snapshots.
type Spec struct {
	Name           string
	Validate       func(input string) bool
	Delay          time.Duration
	AutoCloseDelay time.Duration
	Sensitive      bool
}

func (s Spec) withDefaults() Spec {
	s.Delay = orDefault(s.Delay, DefaultDelay)
	s.AutoCloseDelay = orDefault(s.AutoCloseDelay, DefaultAutoCloseDelay)
	return s
}

// OTPSpec verifies a six digit email code.
func OTPSpec() Spec {
	return Spec{
		Name:           "email_verification",
		Validate:       credential.IsOTP,
		Delay:          2 * time.Second,
		AutoCloseDelay: time.Second,
	}
}

// PasswordResetSpec accepts any new password and shows the success for two
// seconds before closing.
func PasswordResetSpec() Spec {
	return Spec{
		Name:           "password_reset",
		Validate:       func(string) bool { return true },
		Delay:          2 * time.Second,
		AutoCloseDelay: 2 * time.Second,
		Sensitive:      true,
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
