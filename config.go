package loginflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every variable read by LoadConfigFromEnv.
const EnvPrefix = "LOGINFLOW_"

// Config holds every tunable of the Engine. Start from DefaultConfig or
// LoadConfigFromEnv.
type Config struct {
	Session           SessionConfig      `envPrefix:"SESSION_"`
	EmailVerification VerificationConfig `envPrefix:"EMAIL_VERIFICATION_"`
	PasswordReset     VerificationConfig `envPrefix:"PASSWORD_RESET_"`
	Registration      RegistrationConfig `envPrefix:"REGISTRATION_"`
	Audit             AuditConfig        `envPrefix:"AUDIT_"`
	Metrics           MetricsConfig      `envPrefix:"METRICS_"`
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the session lifetime and countdown.
type SessionConfig struct {
	RedisPrefix  string        `env:"REDIS_PREFIX"`
	TTL          time.Duration `env:"TTL"`
	TickInterval time.Duration `env:"TICK_INTERVAL"`
}

/*
====================================
VERIFICATION CONFIG
====================================
*/

// VerificationConfig controls one simulated submit-and-wait dialog.
type VerificationConfig struct {
	Delay          time.Duration `env:"DELAY"`
	AutoCloseDelay time.Duration `env:"AUTO_CLOSE_DELAY"`
}

/*
====================================
REGISTRATION CONFIG
====================================
*/

// RegistrationConfig controls the registration completion timeline.
type RegistrationConfig struct {
	CompletionDelay time.Duration `env:"COMPLETION_DELAY"`
	RedirectDelay   time.Duration `env:"REDIRECT_DELAY"`
	MinBirthYear    int           `env:"MIN_BIRTH_YEAR"`
}

/*
====================================
OBSERVABILITY CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool `env:"ENABLED"`
	BufferSize int  `env:"BUFFER_SIZE"`
	DropIfFull bool `env:"DROP_IF_FULL"`
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool `env:"ENABLED"`
	EnableLatencyHistograms bool `env:"LATENCY_HISTOGRAMS"`
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			RedisPrefix:  "lf",
			TTL:          60 * time.Second,
			TickInterval: time.Second,
		},
		EmailVerification: VerificationConfig{
			Delay:          2 * time.Second,
			AutoCloseDelay: time.Second,
		},
		PasswordReset: VerificationConfig{
			Delay:          2 * time.Second,
			AutoCloseDelay: 2 * time.Second,
		},
		Registration: RegistrationConfig{
			CompletionDelay: 2 * time.Second,
			RedirectDelay:   2 * time.Second,
			MinBirthYear:    1900,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// DefaultConfig returns the timings of the reference flows: a 60 s session
// with a 1 s countdown, 2 s submissions and their auto-close delays.
func DefaultConfig() Config {
	return defaultConfig()
}

// LoadConfigFromEnv starts from the defaults and overrides every field whose
// LOGINFLOW_* variable is set, for example LOGINFLOW_SESSION_TTL=90s or
// LOGINFLOW_AUDIT_ENABLED=true. The result is validated.
func LoadConfigFromEnv() (Config, error) {
	cfg := defaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	// Session
	if c.Session.RedisPrefix == "" {
		return errors.New("Session RedisPrefix must not be empty")
	}
	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	if c.Session.TickInterval <= 0 {
		return errors.New("Session TickInterval must be > 0")
	}
	if c.Session.TickInterval > c.Session.TTL {
		return errors.New("Session TickInterval must not exceed TTL")
	}

	// Verification dialogs
	if err := c.EmailVerification.validate("EmailVerification"); err != nil {
		return err
	}
	if err := c.PasswordReset.validate("PasswordReset"); err != nil {
		return err
	}

	// Registration
	if c.Registration.CompletionDelay <= 0 {
		return errors.New("Registration CompletionDelay must be > 0")
	}
	if c.Registration.RedirectDelay <= 0 {
		return errors.New("Registration RedirectDelay must be > 0")
	}
	if c.Registration.MinBirthYear <= 0 {
		return errors.New("Registration MinBirthYear must be > 0")
	}

	// Audit
	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
	}

	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}

func (v VerificationConfig) validate(name string) error {
	if v.Delay <= 0 {
		return fmt.Errorf("%s Delay must be > 0", name)
	}
	if v.AutoCloseDelay <= 0 {
		return fmt.Errorf("%s AutoCloseDelay must be > 0", name)
	}
	return nil
}
