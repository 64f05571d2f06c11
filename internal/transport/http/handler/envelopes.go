package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrEthical07/loginflow"
	"github.com/MrEthical07/loginflow/internal/rate"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
	Field     string `json:"field,omitempty"`
}

// SessionEnvelope reports the login session.
type SessionEnvelope struct {
	Active           bool  `json:"active"`
	RemainingSeconds int   `json:"remainingSeconds"`
	ExpiresAt        int64 `json:"expiresAt,omitempty"`
}

// RouteEnvelope names the page a client should render.
type RouteEnvelope struct {
	Route loginflow.Route `json:"route"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps an engine error to its status code. Field errors carry
// the name of the offending field.
func httpError(w http.ResponseWriter, err error) {
	if errors.Is(err, rate.ErrRateLimited) {
		writeJSON(w, http.StatusTooManyRequests, MessageEnvelope{Error: "too many attempts", ErrorCode: "rate_limited"})
		return
	}

	kind := loginflow.KindOf(err)
	env := MessageEnvelope{Error: err.Error(), ErrorCode: kind.String()}
	if field, ok := loginflow.FieldOf(err); ok {
		env.Field = field
	}
	if kind == loginflow.KindInternal {
		env.Error = "internal error"
	}
	writeJSON(w, statusFor(kind), env)
}

func statusFor(kind loginflow.ErrorKind) int {
	switch kind {
	case loginflow.KindNone:
		return http.StatusOK
	case loginflow.KindInvalidCredentials:
		return http.StatusUnauthorized
	case loginflow.KindEmailNotVerified:
		return http.StatusForbidden
	case loginflow.KindMalformedOTP, loginflow.KindPasswordMismatch, loginflow.KindValidation:
		return http.StatusUnprocessableEntity
	case loginflow.KindConflict:
		return http.StatusConflict
	case loginflow.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// AttemptLimiter throttles repeated failures. *rate.Limiter implements it.
type AttemptLimiter interface {
	Check(ctx context.Context, scope rate.Scope, subject, ip string) error
	Fail(ctx context.Context, scope rate.Scope, subject, ip string) error
	Reset(ctx context.Context, scope rate.Scope, subject, ip string) error
}
