package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrEthical07/loginflow"
	"github.com/MrEthical07/loginflow/internal/rate"
	"github.com/MrEthical07/loginflow/middleware"
)

// SessionService is the slice of the Engine the session endpoints use.
type SessionService interface {
	Login(ctx context.Context, identifier, password string) error
	Logout(ctx context.Context) error
	Dashboard(ctx context.Context) loginflow.DashboardView
}

// LoginRequest is the login form.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// SessionHandler handles login, logout and the countdown.
type SessionHandler struct {
	svc     SessionService
	limiter AttemptLimiter
}

// NewSessionHandler returns a SessionHandler. limiter may be nil.
func NewSessionHandler(svc SessionService, limiter AttemptLimiter) *SessionHandler {
	return &SessionHandler{svc: svc, limiter: limiter}
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	ip := middleware.ClientIPFromContext(ctx)
	if h.limiter != nil {
		if err := h.limiter.Check(ctx, rate.ScopeLogin, req.Identifier, ip); err != nil {
			httpError(w, err)
			return
		}
	}

	if err := h.svc.Login(ctx, req.Identifier, req.Password); err != nil {
		if h.limiter != nil && errors.Is(err, loginflow.ErrInvalidCredentials) {
			if limErr := h.limiter.Fail(ctx, rate.ScopeLogin, req.Identifier, ip); errors.Is(limErr, rate.ErrRateLimited) {
				err = limErr
			}
		}
		httpError(w, err)
		return
	}
	if h.limiter != nil {
		_ = h.limiter.Reset(ctx, rate.ScopeLogin, req.Identifier, ip)
	}

	writeJSON(w, http.StatusOK, toSessionEnvelope(h.svc.Dashboard(ctx)))
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context()); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "logged out"})
}

// GetCurrent reports the countdown. An expired or missing session answers
// with active false and zero seconds.
func (h *SessionHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSessionEnvelope(h.svc.Dashboard(r.Context())))
}

// Dashboard renders the dashboard view captured by RequireSession, falling
// back to the engine when the middleware did not run.
func (h *SessionHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	view, ok := middleware.DashboardFromContext(r.Context())
	if !ok {
		view = h.svc.Dashboard(r.Context())
	}
	writeJSON(w, http.StatusOK, view)
}

func toSessionEnvelope(view loginflow.DashboardView) SessionEnvelope {
	return SessionEnvelope{
		Active:           view.Active,
		RemainingSeconds: view.RemainingSeconds,
		ExpiresAt:        view.ExpiresAt,
	}
}

// Page answers with the page route after the guard let the request
// through.
func Page(route loginflow.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, RouteEnvelope{Route: route})
	}
}
