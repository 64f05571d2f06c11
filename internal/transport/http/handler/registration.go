package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/MrEthical07/loginflow"
	"github.com/go-chi/chi/v5"
)

// RegistrationService is the slice of the Engine behind the registration
// form.
type RegistrationService interface {
	BeginRegistration() error
	UpdateRegistration(fields loginflow.RegistrationFields) error
	SubmitRegistration(ctx context.Context, fields loginflow.RegistrationFields) error
	SelectBirthDay(day int) error
	SelectBirthMonth(month time.Month) error
	SelectBirthYear(year int) error
	RegistrationState() loginflow.RegistrationSnapshot
}

// RegistrationHandler handles the registration form endpoints.
type RegistrationHandler struct {
	svc RegistrationService
}

func NewRegistrationHandler(svc RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{svc: svc}
}

func (h *RegistrationHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.RegistrationState())
}

// BirthDateRequest picks parts of the date of birth. Parts left out keep
// their current value.
type BirthDateRequest struct {
	Day   *int `json:"day,omitempty"`
	Month *int `json:"month,omitempty"`
	Year  *int `json:"year,omitempty"`
}

// Action dispatches begin, select-dob, update and submit. update and submit
// take the whole form.
func (h *RegistrationHandler) Action(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")
	if action == "select-dob" {
		h.selectBirthDate(w, r)
		return
	}
	if action == "begin" {
		if err := h.svc.BeginRegistration(); err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, h.svc.RegistrationState())
		return
	}
	if action != "update" && action != "submit" {
		writeError(w, http.StatusBadRequest, "unknown action")
		return
	}

	var fields loginflow.RegistrationFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if action == "update" {
		if err := h.svc.UpdateRegistration(fields); err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, h.svc.RegistrationState())
		return
	}

	if err := h.svc.SubmitRegistration(r.Context(), fields); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.svc.RegistrationState())
}

// selectBirthDate applies year, then month, then day, so a day is clamped
// against the month and year sent with it.
func (h *RegistrationHandler) selectBirthDate(w http.ResponseWriter, r *http.Request) {
	var req BirthDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Day == nil && req.Month == nil && req.Year == nil {
		writeError(w, http.StatusBadRequest, "day, month or year is required")
		return
	}
	if req.Month != nil && (*req.Month < 1 || *req.Month > 12) {
		writeError(w, http.StatusBadRequest, "month must be between 1 and 12")
		return
	}

	var err error
	if req.Year != nil {
		err = h.svc.SelectBirthYear(*req.Year)
	}
	if err == nil && req.Month != nil {
		err = h.svc.SelectBirthMonth(time.Month(*req.Month))
	}
	if err == nil && req.Day != nil {
		err = h.svc.SelectBirthDay(*req.Day)
	}
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.RegistrationState())
}
