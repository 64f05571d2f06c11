package internaldefs

import (
	"github.com/MrEthical07/loginflow"
)

// CounterDef names one counter.
type CounterDef struct {
	ID   loginflow.MetricID
	Name string
	Help string
}

// HistogramDef names one histogram.
type HistogramDef struct {
	ID   loginflow.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in exposition order.
var CounterDefs = []CounterDef{
	{ID: loginflow.MetricLoginSuccess, Name: "loginflow_login_success_total", Help: "Successful login attempts."},
	{ID: loginflow.MetricLoginFailure, Name: "loginflow_login_failure_total", Help: "Failed login attempts."},
	{ID: loginflow.MetricLogout, Name: "loginflow_logout_total", Help: "Logouts of an active session."},
	{ID: loginflow.MetricSessionExpired, Name: "loginflow_session_expired_total", Help: "Sessions expired by the countdown."},
	{ID: loginflow.MetricSessionResumed, Name: "loginflow_session_resumed_total", Help: "Persisted sessions resumed on init."},
	{ID: loginflow.MetricEmailVerificationSubmit, Name: "loginflow_email_verification_submit_total", Help: "Accepted OTP submissions."},
	{ID: loginflow.MetricEmailVerificationSuccess, Name: "loginflow_email_verification_success_total", Help: "Emails verified."},
	{ID: loginflow.MetricEmailVerificationMalformed, Name: "loginflow_email_verification_malformed_total", Help: "OTP submissions rejected as malformed."},
	{ID: loginflow.MetricPasswordResetSubmit, Name: "loginflow_password_reset_submit_total", Help: "Accepted password reset submissions."},
	{ID: loginflow.MetricPasswordResetSuccess, Name: "loginflow_password_reset_success_total", Help: "Completed password resets."},
	{ID: loginflow.MetricPasswordResetRejected, Name: "loginflow_password_reset_rejected_total", Help: "Rejected password reset submissions."},
	{ID: loginflow.MetricRegistrationSubmit, Name: "loginflow_registration_submit_total", Help: "Registrations accepted for completion."},
	{ID: loginflow.MetricRegistrationValidationFailure, Name: "loginflow_registration_validation_failure_total", Help: "Registrations rejected by a field rule."},
	{ID: loginflow.MetricRegistrationGateRejected, Name: "loginflow_registration_gate_rejected_total", Help: "Registrations rejected for an unverified email."},
	{ID: loginflow.MetricRegistrationCompleted, Name: "loginflow_registration_completed_total", Help: "Completed registrations."},
	{ID: loginflow.MetricRegistrarFailure, Name: "loginflow_registrar_failure_total", Help: "Failed registrar hand-offs."},
	{ID: loginflow.MetricStoreFailure, Name: "loginflow_store_failure_total", Help: "Session store failures."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: loginflow.MetricLoginLatency, Name: "loginflow_login_latency_seconds", Help: "Login latency histogram."},
}

// HistogramBounds are the upper bounds, in seconds, of the eight buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix renders HistogramBounds as metric name suffixes.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to eight buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
