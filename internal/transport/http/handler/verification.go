package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrEthical07/loginflow"
	"github.com/MrEthical07/loginflow/internal/rate"
	"github.com/MrEthical07/loginflow/middleware"
	"github.com/go-chi/chi/v5"
)

// EmailVerificationService is the slice of the Engine behind the OTP
// dialog.
type EmailVerificationService interface {
	OpenEmailVerification() error
	SubmitOTP(ctx context.Context, code string) error
	CloseEmailVerification()
	EmailVerificationState() loginflow.VerificationSnapshot
}

// PasswordResetService is the slice of the Engine behind the password
// reset dialog.
type PasswordResetService interface {
	OpenPasswordReset() error
	SubmitPasswordReset(ctx context.Context, newPassword, confirmPassword string) error
	ClosePasswordReset()
	PasswordResetState() loginflow.VerificationSnapshot
}

// OTPRequest carries the six digit code.
type OTPRequest struct {
	Code string `json:"code"`
}

// PasswordResetRequest carries the new password and its confirmation.
type PasswordResetRequest struct {
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// EmailVerificationHandler handles the OTP dialog endpoints.
type EmailVerificationHandler struct {
	svc     EmailVerificationService
	limiter AttemptLimiter
}

// NewEmailVerificationHandler returns an EmailVerificationHandler. limiter
// may be nil.
func NewEmailVerificationHandler(svc EmailVerificationService, limiter AttemptLimiter) *EmailVerificationHandler {
	return &EmailVerificationHandler{svc: svc, limiter: limiter}
}

func (h *EmailVerificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.EmailVerificationState())
}

// Action dispatches open, submit and close.
func (h *EmailVerificationHandler) Action(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "action") {
	case "open":
		if err := h.svc.OpenEmailVerification(); err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, h.svc.EmailVerificationState())
	case "submit":
		var req OTPRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		ctx := r.Context()
		ip := middleware.ClientIPFromContext(ctx)
		if h.limiter != nil {
			if err := h.limiter.Check(ctx, rate.ScopeOTP, "", ip); err != nil {
				httpError(w, err)
				return
			}
		}
		if err := h.svc.SubmitOTP(ctx, req.Code); err != nil {
			if h.limiter != nil && errors.Is(err, loginflow.ErrMalformedOTP) {
				_ = h.limiter.Fail(ctx, rate.ScopeOTP, "", ip)
			}
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, h.svc.EmailVerificationState())
	case "close":
		h.svc.CloseEmailVerification()
		writeJSON(w, http.StatusOK, h.svc.EmailVerificationState())
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}

// PasswordResetHandler handles the password reset dialog endpoints.
type PasswordResetHandler struct {
	svc PasswordResetService
}

func NewPasswordResetHandler(svc PasswordResetService) *PasswordResetHandler {
	return &PasswordResetHandler{svc: svc}
}

func (h *PasswordResetHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.PasswordResetState())
}

// Action dispatches open, submit and close.
func (h *PasswordResetHandler) Action(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "action") {
	case "open":
		if err := h.svc.OpenPasswordReset(); err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, h.svc.PasswordResetState())
	case "submit":
		var req PasswordResetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := h.svc.SubmitPasswordReset(r.Context(), req.NewPassword, req.ConfirmPassword); err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, h.svc.PasswordResetState())
	case "close":
		h.svc.ClosePasswordReset()
		writeJSON(w, http.StatusOK, h.svc.PasswordResetState())
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}
