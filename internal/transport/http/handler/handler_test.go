package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrEthical07/loginflow"
	"github.com/MrEthical07/loginflow/internal/rate"
	"github.com/MrEthical07/loginflow/workflow"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockSessionSvc struct{ mock.Mock }

func (m *mockSessionSvc) Login(ctx context.Context, identifier, password string) error {
	return m.Called(ctx, identifier, password).Error(0)
}

func (m *mockSessionSvc) Logout(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockSessionSvc) Dashboard(ctx context.Context) loginflow.DashboardView {
	return m.Called(ctx).Get(0).(loginflow.DashboardView)
}

type mockLimiter struct{ mock.Mock }

func (m *mockLimiter) Check(ctx context.Context, scope rate.Scope, subject, ip string) error {
	return m.Called(ctx, scope, subject, ip).Error(0)
}

func (m *mockLimiter) Fail(ctx context.Context, scope rate.Scope, subject, ip string) error {
	return m.Called(ctx, scope, subject, ip).Error(0)
}

func (m *mockLimiter) Reset(ctx context.Context, scope rate.Scope, subject, ip string) error {
	return m.Called(ctx, scope, subject, ip).Error(0)
}

type mockResetSvc struct{ mock.Mock }

func (m *mockResetSvc) OpenPasswordReset() error { return m.Called().Error(0) }

func (m *mockResetSvc) SubmitPasswordReset(ctx context.Context, newPassword, confirmPassword string) error {
	return m.Called(ctx, newPassword, confirmPassword).Error(0)
}

func (m *mockResetSvc) ClosePasswordReset() { m.Called() }

func (m *mockResetSvc) PasswordResetState() loginflow.VerificationSnapshot {
	return m.Called().Get(0).(loginflow.VerificationSnapshot)
}

type mockRegistrationSvc struct{ mock.Mock }

func (m *mockRegistrationSvc) BeginRegistration() error { return m.Called().Error(0) }

func (m *mockRegistrationSvc) UpdateRegistration(fields loginflow.RegistrationFields) error {
	return m.Called(fields).Error(0)
}

func (m *mockRegistrationSvc) SubmitRegistration(ctx context.Context, fields loginflow.RegistrationFields) error {
	return m.Called(ctx, fields).Error(0)
}

func (m *mockRegistrationSvc) RegistrationState() loginflow.RegistrationSnapshot {
	return m.Called().Get(0).(loginflow.RegistrationSnapshot)
}

func (m *mockRegistrationSvc) SelectBirthDay(day int) error { return m.Called(day).Error(0) }

func (m *mockRegistrationSvc) SelectBirthMonth(month time.Month) error {
	return m.Called(month).Error(0)
}

func (m *mockRegistrationSvc) SelectBirthYear(year int) error { return m.Called(year).Error(0) }

// --- helpers ---

func jsonBody(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

// withAction injects the chi URL param "action" into the request context.
func withAction(r *http.Request, action string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("action", action)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) MessageEnvelope {
	t.Helper()
	var env MessageEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	return env
}

// --- session tests ---

func TestLogin_InvalidBody(t *testing.T) {
	h := NewSessionHandler(&mockSessionSvc{}, nil)
	r := httptest.NewRequest(http.MethodPost, "/v1/sessions/login", bytes.NewBufferString("not-json"))
	rr := httptest.NewRecorder()
	h.Login(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := &mockSessionSvc{}
	svc.On("Login", mock.Anything, "alice", "short").Return(loginflow.ErrInvalidCredentials)
	lim := &mockLimiter{}
	lim.On("Check", mock.Anything, rate.ScopeLogin, "alice", "").Return(nil)
	lim.On("Fail", mock.Anything, rate.ScopeLogin, "alice", "").Return(nil)

	h := NewSessionHandler(svc, lim)
	r := httptest.NewRequest(http.MethodPost, "/v1/sessions/login", jsonBody(t, LoginRequest{Identifier: "alice", Password: "short"}))
	rr := httptest.NewRecorder()
	h.Login(rr, r)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "invalid_credentials", decodeEnvelope(t, rr).ErrorCode)
	svc.AssertExpectations(t)
	lim.AssertExpectations(t)
}

func TestLogin_RateLimitedBeforeEngine(t *testing.T) {
	svc := &mockSessionSvc{}
	lim := &mockLimiter{}
	lim.On("Check", mock.Anything, rate.ScopeLogin, "alice", "").Return(rate.ErrRateLimited)

	h := NewSessionHandler(svc, lim)
	r := httptest.NewRequest(http.MethodPost, "/v1/sessions/login", jsonBody(t, LoginRequest{Identifier: "alice", Password: "password123"}))
	rr := httptest.NewRecorder()
	h.Login(rr, r)

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	svc.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogin_FailureExhaustsBudget(t *testing.T) {
	svc := &mockSessionSvc{}
	svc.On("Login", mock.Anything, "alice", "x").Return(loginflow.ErrInvalidCredentials)
	lim := &mockLimiter{}
	lim.On("Check", mock.Anything, rate.ScopeLogin, "alice", "").Return(nil)
	lim.On("Fail", mock.Anything, rate.ScopeLogin, "alice", "").Return(rate.ErrRateLimited)

	h := NewSessionHandler(svc, lim)
	r := httptest.NewRequest(http.MethodPost, "/v1/sessions/login", jsonBody(t, LoginRequest{Identifier: "alice", Password: "x"}))
	rr := httptest.NewRecorder()
	h.Login(rr, r)

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestLogin_HappyPath(t *testing.T) {
	svc := &mockSessionSvc{}
	svc.On("Login", mock.Anything, "alice", "password123").Return(nil)
	svc.On("Dashboard", mock.Anything).Return(loginflow.DashboardView{Active: true, RemainingSeconds: 60, ExpiresAt: 1000})
	lim := &mockLimiter{}
	lim.On("Check", mock.Anything, rate.ScopeLogin, "alice", "").Return(nil)
	lim.On("Reset", mock.Anything, rate.ScopeLogin, "alice", "").Return(nil)

	h := NewSessionHandler(svc, lim)
	r := httptest.NewRequest(http.MethodPost, "/v1/sessions/login", jsonBody(t, LoginRequest{Identifier: "alice", Password: "password123"}))
	rr := httptest.NewRecorder()
	h.Login(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp SessionEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, SessionEnvelope{Active: true, RemainingSeconds: 60, ExpiresAt: 1000}, resp)
	svc.AssertExpectations(t)
	lim.AssertExpectations(t)
}

func TestLogout_StoreUnavailable(t *testing.T) {
	svc := &mockSessionSvc{}
	svc.On("Logout", mock.Anything).Return(loginflow.ErrStoreUnavailable)

	h := NewSessionHandler(svc, nil)
	rr := httptest.NewRecorder()
	h.Logout(rr, httptest.NewRequest(http.MethodPost, "/v1/sessions/logout", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

// --- password reset tests ---

func TestPasswordReset_UnknownAction(t *testing.T) {
	h := NewPasswordResetHandler(&mockResetSvc{})
	r := withAction(httptest.NewRequest(http.MethodPost, "/v1/password-reset/bogus", nil), "bogus")
	rr := httptest.NewRecorder()
	h.Action(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPasswordReset_FieldError(t *testing.T) {
	svc := &mockResetSvc{}
	svc.On("SubmitPasswordReset", mock.Anything, "short", "short").
		Return(&loginflow.FieldError{Field: "newPassword", Rule: "password"})

	h := NewPasswordResetHandler(svc)
	body := jsonBody(t, PasswordResetRequest{NewPassword: "short", ConfirmPassword: "short"})
	r := withAction(httptest.NewRequest(http.MethodPost, "/v1/password-reset/submit", body), "submit")
	rr := httptest.NewRecorder()
	h.Action(rr, r)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	env := decodeEnvelope(t, rr)
	assert.Equal(t, "newPassword", env.Field)
	assert.Equal(t, "validation_failed", env.ErrorCode)
}

func TestPasswordReset_SubmitAccepted(t *testing.T) {
	svc := &mockResetSvc{}
	svc.On("SubmitPasswordReset", mock.Anything, "newpassword1", "newpassword1").Return(nil)
	svc.On("PasswordResetState").Return(loginflow.VerificationSnapshot{ID: "r1", State: workflow.Submitting})

	h := NewPasswordResetHandler(svc)
	body := jsonBody(t, PasswordResetRequest{NewPassword: "newpassword1", ConfirmPassword: "newpassword1"})
	r := withAction(httptest.NewRequest(http.MethodPost, "/v1/password-reset/submit", body), "submit")
	rr := httptest.NewRecorder()
	h.Action(rr, r)

	assert.Equal(t, http.StatusAccepted, rr.Code)
	svc.AssertExpectations(t)
}

func TestPasswordReset_Conflict(t *testing.T) {
	svc := &mockResetSvc{}
	svc.On("SubmitPasswordReset", mock.Anything, "newpassword1", "newpassword1").Return(loginflow.ErrSubmissionInProgress)

	h := NewPasswordResetHandler(svc)
	body := jsonBody(t, PasswordResetRequest{NewPassword: "newpassword1", ConfirmPassword: "newpassword1"})
	r := withAction(httptest.NewRequest(http.MethodPost, "/v1/password-reset/submit", body), "submit")
	rr := httptest.NewRecorder()
	h.Action(rr, r)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

// --- registration tests ---

func TestRegistration_EmailNotVerified(t *testing.T) {
	svc := &mockRegistrationSvc{}
	svc.On("SubmitRegistration", mock.Anything, mock.Anything).Return(loginflow.ErrEmailNotVerified)

	h := NewRegistrationHandler(svc)
	body := jsonBody(t, loginflow.RegistrationFields{Username: "alice", Email: "alice@example.com"})
	r := withAction(httptest.NewRequest(http.MethodPost, "/v1/registration/submit", body), "submit")
	rr := httptest.NewRecorder()
	h.Action(rr, r)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "email_not_verified", decodeEnvelope(t, rr).ErrorCode)
}

func TestRegistration_UpdateDecodesForm(t *testing.T) {
	svc := &mockRegistrationSvc{}
	svc.On("UpdateRegistration", mock.MatchedBy(func(f loginflow.RegistrationFields) bool {
		return f.Username == "alice" && f.DOB != nil && f.DOB.Year == 1990
	})).Return(nil)
	svc.On("RegistrationState").Return(loginflow.RegistrationSnapshot{ID: "a1", Username: "alice"})

	h := NewRegistrationHandler(svc)
	raw := `{"username":"alice","email":"alice@example.com","dob":{"day":15,"month":6,"year":1990}}`
	r := withAction(httptest.NewRequest(http.MethodPost, "/v1/registration/update", bytes.NewBufferString(raw)), "update")
	rr := httptest.NewRecorder()
	h.Action(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestRegistration_SelectBirthDateOrder(t *testing.T) {
	svc := &mockRegistrationSvc{}
	var order []string
	svc.On("SelectBirthYear", 2001).Run(func(mock.Arguments) { order = append(order, "year") }).Return(nil)
	svc.On("SelectBirthMonth", time.February).Run(func(mock.Arguments) { order = append(order, "month") }).Return(nil)
	svc.On("SelectBirthDay", 31).Run(func(mock.Arguments) { order = append(order, "day") }).Return(nil)
	svc.On("RegistrationState").Return(loginflow.RegistrationSnapshot{
		DOB: &loginflow.BirthDate{Day: 28, Month: time.February, Year: 2001, Selected: true},
	})

	h := NewRegistrationHandler(svc)
	raw := `{"day":31,"month":2,"year":2001}`
	r := withAction(httptest.NewRequest(http.MethodPost, "/v1/registration/select-dob", bytes.NewBufferString(raw)), "select-dob")
	rr := httptest.NewRecorder()
	h.Action(rr, r)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"year", "month", "day"}, order)
	var snap loginflow.RegistrationSnapshot
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&snap))
	require.NotNil(t, snap.DOB)
	assert.Equal(t, 28, snap.DOB.Day)
	svc.AssertExpectations(t)
}

func TestRegistration_SelectBirthDateRejectsBadInput(t *testing.T) {
	for name, raw := range map[string]string{
		"empty":    `{}`,
		"month 13": `{"month":13}`,
		"not json": `{`,
	} {
		t.Run(name, func(t *testing.T) {
			svc := &mockRegistrationSvc{}
			h := NewRegistrationHandler(svc)
			r := withAction(httptest.NewRequest(http.MethodPost, "/v1/registration/select-dob", bytes.NewBufferString(raw)), "select-dob")
			rr := httptest.NewRecorder()
			h.Action(rr, r)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			svc.AssertNotCalled(t, "SelectBirthMonth", mock.Anything)
		})
	}
}

func TestRegistration_SelectBirthDateWhileSubmitting(t *testing.T) {
	svc := &mockRegistrationSvc{}
	svc.On("SelectBirthDay", 3).Return(loginflow.ErrSubmissionInProgress)

	h := NewRegistrationHandler(svc)
	r := withAction(httptest.NewRequest(http.MethodPost, "/v1/registration/select-dob", bytes.NewBufferString(`{"day":3}`)), "select-dob")
	rr := httptest.NewRecorder()
	h.Action(rr, r)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestHTTPErrorHidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	httpError(rr, errors.New("dial tcp 10.0.0.5:6379: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	env := decodeEnvelope(t, rr)
	assert.Equal(t, "internal error", env.Error)
	assert.Equal(t, "internal", env.ErrorCode)
}
