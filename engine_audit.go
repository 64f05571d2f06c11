package loginflow

import "context"

const (
	auditEventLoginSuccess             = "login_success"
	auditEventLoginFailure             = "login_failure"
	auditEventLogout                   = "logout"
	auditEventSessionExpired           = "session_expired"
	auditEventEmailVerificationSubmit  = "email_verification_submit"
	auditEventEmailVerificationConfirm = "email_verification_confirm"
	auditEventPasswordResetSubmit      = "password_reset_submit"
	auditEventPasswordResetConfirm     = "password_reset_confirm"
	auditEventRegistrationSubmit       = "registration_submit"
	auditEventRegistrationRejected     = "registration_rejected"
	auditEventRegistrationCompleted    = "registration_completed"
)

// AuditErrorCode is the stable error label recorded on failed audit events.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrEmailNotVerified   AuditErrorCode = "email_not_verified"
	auditErrMalformedOTP       AuditErrorCode = "malformed_otp"
	auditErrPasswordMismatch   AuditErrorCode = "password_mismatch"
	auditErrValidation         AuditErrorCode = "validation_failed"
	auditErrConflict           AuditErrorCode = "conflict"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	subject string,
	correlationID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}
	if ip := clientIPFromContext(ctx); ip != "" {
		if metadata == nil {
			metadata = make(map[string]string, 1)
		}
		metadata["ip"] = ip
	}

	event := AuditEvent{
		EventType:     eventType,
		Subject:       subject,
		CorrelationID: correlationID,
		Success:       success,
		Metadata:      metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	switch KindOf(err) {
	case KindNone:
		return ""
	case KindInvalidCredentials:
		return auditErrInvalidCredentials
	case KindEmailNotVerified:
		return auditErrEmailNotVerified
	case KindMalformedOTP:
		return auditErrMalformedOTP
	case KindPasswordMismatch:
		return auditErrPasswordMismatch
	case KindValidation:
		return auditErrValidation
	case KindConflict:
		return auditErrConflict
	case KindUnavailable:
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
