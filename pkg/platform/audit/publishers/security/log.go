package security

import (
	"context"
	"log/slog"

	"guardian/pkg/domain"
	"guardian/pkg/platform/attrs"
	audit "guardian/pkg/platform/audit"
	"guardian/pkg/requestcontext"
)

// Log writes a security event to both the structured logger and pub. Reason
// and severity are lifted from attrList ("reason", "severity") when present.
// Either sink may be nil.
func Log(ctx context.Context, logger *slog.Logger, pub *Publisher, event audit.AuditEvent, walletID domain.WalletID, attrList ...any) {
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		attrList = append(attrList, "request_id", requestID)
	}

	if logger != nil {
		args := append([]any{"wallet_id", walletID, "event", string(event), "log_type", "audit"}, attrList...)
		logger.InfoContext(ctx, string(event), args...)
	}

	if pub == nil {
		return
	}

	severity := audit.Severity(attrs.String(attrList, "severity"))
	pub.Emit(ctx, audit.SecurityEvent{
		WalletID:  walletID,
		Subject:   walletID.String(),
		Action:    event,
		Reason:    attrs.String(attrList, "reason"),
		IP:        requestcontext.ClientIP(ctx),
		RequestID: requestID,
		ActorID:   requestcontext.Actor(ctx),
		Severity:  severity,
	})
}
