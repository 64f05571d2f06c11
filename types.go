package loginflow

import (
	"io"

	"github.com/MrEthical07/loginflow/handoff"
	internalaudit "github.com/MrEthical07/loginflow/internal/audit"
	"github.com/MrEthical07/loginflow/registration"
	"github.com/MrEthical07/loginflow/session"
	"github.com/MrEthical07/loginflow/workflow"
)

// Route is a navigation target of the UI layer.
type Route = handoff.Route

const (
	RouteLogin     = handoff.RouteLogin
	RouteRegister  = handoff.RouteRegister
	RouteDashboard = handoff.RouteDashboard
)

// Navigator, Notifier and Registrar are the collaborators the Engine hands
// control back to.
type (
	Navigator  = handoff.Navigator
	Notifier   = handoff.Notifier
	Registrar  = handoff.Registrar
	NoticeKind = handoff.NoticeKind
)

const (
	NoticeSuccess = handoff.NoticeSuccess
	NoticeError   = handoff.NoticeError
	NoticeAlert   = handoff.NoticeAlert
)

// Session is the persisted login session.
type Session = session.Session

// RegistrationFields is the registration form.
type RegistrationFields = registration.Fields

// BirthDate is the date-of-birth selector value.
type BirthDate = registration.BirthDate

// RegistrationSnapshot is the rendered state of the current registration
// attempt.
type RegistrationSnapshot = registration.Snapshot

// VerificationSnapshot is the rendered state of an OTP or password reset
// dialog.
type VerificationSnapshot = workflow.Snapshot

// DashboardView is what the dashboard renders for an active session.
type DashboardView struct {
	Active           bool   `json:"active"`
	Greeting         string `json:"greeting"`
	RemainingSeconds int    `json:"remainingSeconds"`
	ExpiresAt        int64  `json:"expiresAt,omitempty"`
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
