package loginflow

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/loginflow/registration"
)

// BeginRegistration discards the current registration attempt, including a
// pending completion or redirect, and starts an empty one.
func (e *Engine) BeginRegistration() error {
	if err := e.ready(); err != nil {
		return err
	}
	e.registration.Begin()
	return nil
}

// UpdateRegistration replaces the form fields of the current attempt. A
// changed email must be verified again.
func (e *Engine) UpdateRegistration(fields RegistrationFields) error {
	if err := e.ready(); err != nil {
		return err
	}
	return e.registration.Apply(fields)
}

// SelectBirthDay picks the day of the date of birth, clamped to the
// selected month. The first pick fills the other parts with their defaults.
func (e *Engine) SelectBirthDay(day int) error {
	if err := e.ready(); err != nil {
		return err
	}
	return e.registration.SelectBirthDay(day)
}

// SelectBirthMonth picks the month. A day past its end becomes the last day.
func (e *Engine) SelectBirthMonth(month time.Month) error {
	if err := e.ready(); err != nil {
		return err
	}
	return e.registration.SelectBirthMonth(month)
}

// SelectBirthYear picks the year. 29 February becomes 28 outside leap years.
func (e *Engine) SelectBirthYear(year int) error {
	if err := e.ready(); err != nil {
		return err
	}
	return e.registration.SelectBirthYear(year)
}

// OpenEmailVerification opens the OTP dialog for the email currently in the
// form.
func (e *Engine) OpenEmailVerification() error {
	if err := e.ready(); err != nil {
		return err
	}
	return e.registration.OpenVerification()
}

// SubmitOTP describes the submitotp operation and its observable behavior.
//
// SubmitOTP fails at once with ErrMalformedOTP unless code is six digits.
// A well-formed code verifies the current email after the verification
// delay.
func (e *Engine) SubmitOTP(ctx context.Context, code string) error {
	if err := e.ready(); err != nil {
		return err
	}
	snap := e.registration.Snapshot()

	err := e.registration.SubmitOTP(code)
	switch {
	case err == nil:
		e.metricInc(MetricEmailVerificationSubmit)
	case errors.Is(err, ErrMalformedOTP):
		e.metricInc(MetricEmailVerificationMalformed)
	}
	e.emitAudit(ctx, auditEventEmailVerificationSubmit, err == nil, snap.Email, snap.Verification.ID, err, nil)
	return err
}

// CloseEmailVerification dismisses the OTP dialog. A code in flight never
// verifies the email.
func (e *Engine) CloseEmailVerification() {
	if e.ready() != nil {
		return
	}
	e.registration.CloseVerification()
}

// SubmitRegistration describes the submitregistration operation and its observable behavior.
//
// SubmitRegistration applies fields and submits the attempt. Field rules are
// reported first, in form order; ErrEmailNotVerified is returned when they
// all pass but the email has not been verified.
func (e *Engine) SubmitRegistration(ctx context.Context, fields RegistrationFields) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.registration.Apply(fields); err != nil {
		return err
	}

	id := e.registration.ID()
	err := e.registration.Submit(ctx)
	switch {
	case err == nil:
		e.metricInc(MetricRegistrationSubmit)
		e.emitAudit(ctx, auditEventRegistrationSubmit, true, fields.Email, id, nil, nil)
		return nil
	case errors.Is(err, ErrEmailNotVerified):
		e.metricInc(MetricRegistrationGateRejected)
	case errors.Is(err, ErrValidationFailed), errors.Is(err, ErrPasswordMismatch):
		e.metricInc(MetricRegistrationValidationFailure)
	}
	e.emitAudit(ctx, auditEventRegistrationRejected, false, fields.Email, id, err, func() map[string]string {
		md := map[string]string{}
		if field, ok := FieldOf(err); ok {
			md["field"] = field
		}
		return md
	})
	return err
}

// RegistrationState returns the current attempt. Passwords are never
// included.
func (e *Engine) RegistrationState() RegistrationSnapshot {
	if e.ready() != nil {
		return RegistrationSnapshot{}
	}
	return e.registration.Snapshot()
}

// EmailVerificationState returns the OTP dialog state.
func (e *Engine) EmailVerificationState() VerificationSnapshot {
	if e.ready() != nil {
		return VerificationSnapshot{}
	}
	return e.registration.Verification()
}

func (e *Engine) onRegistrationState(id string, from, to registration.State) {
	e.logger.Debug("registration state changed", "attempt", id, "from", from.String(), "to", to.String())
}

func (e *Engine) onEmailVerified(id, email string) {
	e.metricInc(MetricEmailVerificationSuccess)
	e.emitAudit(context.Background(), auditEventEmailVerificationConfirm, true, email, id, nil, nil)
}

func (e *Engine) onRegistered(id, email string, err error) {
	e.metricInc(MetricRegistrationCompleted)
	if err != nil {
		e.metricInc(MetricRegistrarFailure)
	}
	e.emitAudit(context.Background(), auditEventRegistrationCompleted, err == nil, email, id, err, nil)
}
