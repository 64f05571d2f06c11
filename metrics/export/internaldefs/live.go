package internaldefs

import (
	"context"

	"github.com/MrEthical07/loginflow"
	"github.com/MrEthical07/loginflow/registration"
	"github.com/MrEthical07/loginflow/workflow"
)

// Source is the engine surface the exporters read. *loginflow.Engine
// satisfies it.
type Source interface {
	MetricsSnapshot() loginflow.MetricsSnapshot
	AuditDropped() uint64
	Dashboard(ctx context.Context) loginflow.DashboardView
	RegistrationState() loginflow.RegistrationSnapshot
	EmailVerificationState() loginflow.VerificationSnapshot
	PasswordResetState() loginflow.VerificationSnapshot
}

// LiveState is the flow state observed once per collection.
type LiveState struct {
	Dashboard         loginflow.DashboardView
	Registration      loginflow.RegistrationSnapshot
	EmailVerification loginflow.VerificationSnapshot
	PasswordReset     loginflow.VerificationSnapshot
}

// ReadLiveState reads every view the gauges need from src.
func ReadLiveState(ctx context.Context, src Source) LiveState {
	return LiveState{
		Dashboard:         src.Dashboard(ctx),
		Registration:      src.RegistrationState(),
		EmailVerification: src.EmailVerificationState(),
		PasswordReset:     src.PasswordResetState(),
	}
}

// GaugeDef names one gauge and how it is read from a LiveState.
type GaugeDef struct {
	Name  string
	Help  string
	Value func(LiveState) int64
}

// GaugeDefs lists every exported gauge in exposition order.
var GaugeDefs = []GaugeDef{
	{
		Name:  "loginflow_session_active",
		Help:  "1 while a session is issued.",
		Value: func(s LiveState) int64 { return boolGauge(s.Dashboard.Active) },
	},
	{
		Name:  "loginflow_session_remaining_seconds",
		Help:  "Whole seconds left before the session expires.",
		Value: func(s LiveState) int64 { return int64(s.Dashboard.RemainingSeconds) },
	},
	{
		Name:  "loginflow_email_verification_open",
		Help:  "1 while the OTP dialog is open.",
		Value: func(s LiveState) int64 { return boolGauge(!s.EmailVerification.Closed) },
	},
	{
		Name:  "loginflow_email_verification_pending",
		Help:  "1 while an OTP is waiting on the verification delay.",
		Value: func(s LiveState) int64 { return boolGauge(s.EmailVerification.State == workflow.Submitting) },
	},
	{
		Name:  "loginflow_password_reset_open",
		Help:  "1 while the password reset dialog is open.",
		Value: func(s LiveState) int64 { return boolGauge(!s.PasswordReset.Closed) },
	},
	{
		Name:  "loginflow_password_reset_pending",
		Help:  "1 while a new password is waiting on the reset delay.",
		Value: func(s LiveState) int64 { return boolGauge(s.PasswordReset.State == workflow.Submitting) },
	},
	{
		Name:  "loginflow_registration_email_verified",
		Help:  "1 once the email of the current registration attempt is verified.",
		Value: func(s LiveState) int64 { return boolGauge(s.Registration.EmailVerified) },
	},
	{
		Name:  "loginflow_registration_submitting",
		Help:  "1 while a registration waits on the completion delay.",
		Value: func(s LiveState) int64 { return boolGauge(s.Registration.State == registration.Submitting) },
	},
}

func boolGauge(v bool) int64 {
	if v {
		return 1
	}
	return 0
}
