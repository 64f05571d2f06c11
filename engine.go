package loginflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/MrEthical07/loginflow/handoff"
	internalaudit "github.com/MrEthical07/loginflow/internal/audit"
	"github.com/MrEthical07/loginflow/registration"
	"github.com/MrEthical07/loginflow/scheduler"
	"github.com/MrEthical07/loginflow/session"
	"github.com/MrEthical07/loginflow/workflow"
	"github.com/go-playground/validator/v10"
)

const (
	// LoginFailedMessage is the notice shown when Login rejects its input.
	LoginFailedMessage = "Email or password is incorrect. Please try again"
	// SessionExpiredMessage is the notice shown when the countdown reaches zero.
	SessionExpiredMessage = "Your session has expired. Please log in again."
	// PasswordResetMessage is the notice shown when a reset succeeds.
	PasswordResetMessage = "Password resetted successfully."
)

// Engine wires the session manager, the password reset dialog and the
// registration orchestrator to one scheduler and one set of collaborators.
//
// Build an Engine with New().Build(); call Init to resume a persisted
// session and Close to stop every timer.
type Engine struct {
	config       Config
	sched        scheduler.Scheduler
	logger       *slog.Logger
	store        session.Store
	sessions     *session.Manager
	reset        *workflow.Process
	registration *registration.Orchestrator
	navigator    handoff.Navigator
	notifier     handoff.Notifier
	validate     *validator.Validate
	audit        *internalaudit.Dispatcher
	metrics      *Metrics

	closeOnce sync.Once
	closed    bool
	closeMu   sync.RWMutex
}

// Init resumes a session persisted by an earlier Engine. A session that
// expired in the meantime is expired by the first countdown tick.
func (e *Engine) Init(ctx context.Context) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.sessions.Init(ctx); err != nil {
		e.metricInc(MetricStoreFailure)
		e.logger.Warn("session resume failed", "err", err)
		return err
	}
	if sess := e.sessions.Snapshot(); sess.Active {
		e.metricInc(MetricSessionResumed)
		e.logger.Info("session resumed", "expires_at", sess.ExpiresAt, "stale", sess.Expired(e.sched.Now()))
	}
	return nil
}

// Close describes the close operation and its observable behavior.
//
// Close cancels every pending timer and drains the audit dispatcher. The
// persisted session is kept. Close is idempotent.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.closeOnce.Do(func() {
		e.closeMu.Lock()
		e.closed = true
		e.closeMu.Unlock()

		e.sessions.Teardown()
		e.reset.Close()
		e.registration.Teardown()
		if e.audit != nil {
			e.audit.Close()
		}
	})
}

// Config returns the configuration the Engine was built with.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return e.config
}

// Now returns the scheduler's current time.
func (e *Engine) Now() time.Time {
	return e.sched.Now()
}

// Login describes the login operation and its observable behavior.
//
// Login issues a session when the identifier is a username or an email and
// the password has at least eight characters, then navigates to the
// dashboard. Any other input shows the login failure notice and returns
// ErrInvalidCredentials without persisting anything.
func (e *Engine) Login(ctx context.Context, identifier, password string) error {
	if err := e.ready(); err != nil {
		return err
	}

	start := time.Now()
	s, err := e.sessions.Login(ctx, identifier, password)
	e.observeLatency(MetricLoginLatency, start)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		if errors.Is(err, ErrInvalidCredentials) {
			e.notifier.ShowTransient(NoticeError, LoginFailedMessage, 0)
		} else {
			e.metricInc(MetricStoreFailure)
			e.logger.Warn("session store write failed", "err", err)
		}
		e.emitAudit(ctx, auditEventLoginFailure, false, identifier, "", err, nil)
		return err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, identifier, "", nil, func() map[string]string {
		return map[string]string{"expires_at": time.UnixMilli(s.ExpiresAt).UTC().Format(time.RFC3339)}
	})
	e.navigator.GoTo(RouteDashboard)
	return nil
}

// Logout clears the session and navigates to the login route. It succeeds
// when no session is active.
func (e *Engine) Logout(ctx context.Context) error {
	if err := e.ready(); err != nil {
		return err
	}

	wasActive, err := e.sessions.Logout(ctx)
	if err != nil {
		e.metricInc(MetricStoreFailure)
		e.logger.Warn("session removal failed", "err", err)
	}
	if wasActive {
		e.metricInc(MetricLogout)
		e.emitAudit(ctx, auditEventLogout, err == nil, "", "", err, nil)
	}
	e.navigator.GoTo(RouteLogin)
	return err
}

// RemainingSeconds returns the whole seconds left on the persisted session.
func (e *Engine) RemainingSeconds(ctx context.Context) int {
	if e.ready() != nil {
		return 0
	}
	return e.sessions.RemainingSeconds(ctx)
}

// Tick runs one countdown step immediately. The countdown calls it on its
// own; Tick is exposed for callers that render on demand.
func (e *Engine) Tick(ctx context.Context) int {
	if e.ready() != nil {
		return 0
	}
	return e.sessions.Tick(ctx)
}

// SessionActive reports whether a session is issued.
func (e *Engine) SessionActive() bool {
	if e.ready() != nil {
		return false
	}
	return e.sessions.Active()
}

// Session returns the in-memory view of the session.
func (e *Engine) Session() Session {
	if e.ready() != nil {
		return Session{}
	}
	return e.sessions.Snapshot()
}

// Resolve applies the route guard: the login route redirects to the
// dashboard while a session is active and the dashboard redirects to the
// login route while none is. Other routes are returned unchanged.
func (e *Engine) Resolve(route Route) Route {
	active := e.SessionActive()
	switch {
	case route == RouteLogin && active:
		return RouteDashboard
	case route == RouteDashboard && !active:
		return RouteLogin
	default:
		return route
	}
}

// Dashboard returns what the dashboard renders at the scheduler's current
// time. Inactive sessions yield a zero view.
func (e *Engine) Dashboard(ctx context.Context) DashboardView {
	if e.ready() != nil || !e.sessions.Active() {
		return DashboardView{}
	}
	now := e.sched.Now()
	return DashboardView{
		Active:           true,
		Greeting:         Greeting(now),
		RemainingSeconds: e.sessions.RemainingSeconds(ctx),
		ExpiresAt:        e.sessions.Snapshot().ExpiresAt,
	}
}

// Greeting returns the time-of-day salutation for the hour of t.
func Greeting(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return "Good Morning"
	case h >= 12 && h < 17:
		return "Good Afternoon"
	case h >= 17 && h < 22:
		return "Good Evening"
	default:
		return "Good Night"
	}
}

func (e *Engine) onSessionExpired() {
	e.metricInc(MetricSessionExpired)
	e.logger.Info("session expired")
	e.emitAudit(context.Background(), auditEventSessionExpired, true, "", "", nil, nil)
	e.notifier.ShowTransient(NoticeAlert, SessionExpiredMessage, 0)
	e.navigator.GoTo(RouteLogin)
}

// AuditDropped returns the number of audit events dropped because the
// buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot returns empty maps when metrics are disabled.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) observeLatency(id MetricID, start time.Time) {
	if e == nil || !e.metrics.LatencyEnabled() {
		return
	}
	e.metrics.Observe(id, time.Since(start))
}

func (e *Engine) ready() error {
	if e == nil || e.sessions == nil {
		return ErrEngineNotReady
	}
	e.closeMu.RLock()
	defer e.closeMu.RUnlock()
	if e.closed {
		return ErrEngineNotReady
	}
	return nil
}
