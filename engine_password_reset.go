package loginflow

import (
	"context"
	"errors"

	"github.com/MrEthical07/loginflow/credential"
	"github.com/MrEthical07/loginflow/workflow"
)

type passwordResetForm struct {
	NewPassword     string `json:"newPassword" validate:"password"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=NewPassword"`
}

// OpenPasswordReset opens the password reset dialog with a fresh process.
// Anything still pending from an earlier opening is discarded.
func (e *Engine) OpenPasswordReset() error {
	if err := e.ready(); err != nil {
		return err
	}
	e.reset.Reset()
	return nil
}

// SubmitPasswordReset describes the submitpasswordreset operation and its observable behavior.
//
// SubmitPasswordReset checks the new password and its confirmation, then
// starts the simulated round trip. The success notice is shown when the
// delay elapses and the dialog closes itself after the auto-close delay.
func (e *Engine) SubmitPasswordReset(ctx context.Context, newPassword, confirmPassword string) error {
	if err := e.ready(); err != nil {
		return err
	}
	id := e.reset.Snapshot().ID

	form := passwordResetForm{NewPassword: newPassword, ConfirmPassword: confirmPassword}
	if err := credential.FirstError(e.validate.Struct(form)); err != nil {
		e.metricInc(MetricPasswordResetRejected)
		e.emitAudit(ctx, auditEventPasswordResetSubmit, false, "", id, err, nil)
		return err
	}

	err := mapWorkflowError(e.reset.Submit(newPassword), ErrValidationFailed)
	if err != nil {
		e.metricInc(MetricPasswordResetRejected)
		e.emitAudit(ctx, auditEventPasswordResetSubmit, false, "", id, err, nil)
		return err
	}
	e.metricInc(MetricPasswordResetSubmit)
	e.emitAudit(ctx, auditEventPasswordResetSubmit, true, "", id, nil, nil)
	return nil
}

// ClosePasswordReset dismisses the dialog. A submission in flight is
// discarded and never reports success.
func (e *Engine) ClosePasswordReset() {
	if e.ready() != nil {
		return
	}
	e.reset.Close()
}

// PasswordResetState returns the dialog state. The new password is never
// included.
func (e *Engine) PasswordResetState() VerificationSnapshot {
	if e.ready() != nil {
		return VerificationSnapshot{}
	}
	return e.reset.Snapshot()
}

func (e *Engine) onPasswordReset(id, _ string) {
	e.metricInc(MetricPasswordResetSuccess)
	e.emitAudit(context.Background(), auditEventPasswordResetConfirm, true, "", id, nil, nil)
	e.notifier.ShowTransient(NoticeSuccess, PasswordResetMessage, e.reset.Spec().AutoCloseDelay)
}

func (e *Engine) onPasswordResetState(id string, from, to workflow.State) {
	e.logger.Debug("password reset state changed", "process", id, "from", from.String(), "to", to.String())
}

// mapWorkflowError translates the workflow sentinels into the public
// taxonomy. rejected is what a failed input check maps to.
func mapWorkflowError(err, rejected error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, workflow.ErrRejected):
		return rejected
	case errors.Is(err, workflow.ErrBusy):
		return ErrSubmissionInProgress
	case errors.Is(err, workflow.ErrCompleted):
		return ErrAlreadyVerified
	case errors.Is(err, workflow.ErrClosed):
		return ErrVerificationUnavailable
	default:
		return err
	}
}
