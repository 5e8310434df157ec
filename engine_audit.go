package tubeAuth

import (
	"context"

	"github.com/MrEthical07/tubeAuth/internal"
)

const (
	auditEventLoginSuccess           = "login_success"
	auditEventLoginFailure           = "login_failure"
	auditEventRefreshSuccess         = "refresh_success"
	auditEventRefreshInvalid         = "refresh_invalid"
	auditEventRefreshReuseDetected   = "refresh_reuse_detected"
	auditEventLogout                 = "logout"
	auditEventAccountCreationSuccess = "account_creation_success"
	auditEventAccountCreationFailure = "account_creation_failure"
	auditEventPasswordChangeSuccess  = "password_change_success"
	auditEventPasswordChangeFailure  = "password_change_failure"
	auditEventProfileUpdate          = "profile_update"
)

// emitAudit builds and enqueues an event. metadataBuilder is only called when
// audit is enabled. Events carry ErrorKind codes, never error text.
func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
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

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		UserID:    userID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Error:     ErrorKind(err),
		Metadata:  metadata,
	}
	if ua := userAgentFromContext(ctx); ua != "" {
		event.Device = internal.ParseDevice(ua).Summary()
	}

	e.audit.Emit(ctx, event)
}
