package service

import (
	"context"
	"time"

	"guardian/internal/guardian"
	"guardian/internal/incident"
	"guardian/internal/lockdown"
	"guardian/internal/shield"
	"guardian/internal/wsqk"
	"guardian/pkg/domain"
	audit "guardian/pkg/platform/audit"
)

// SignalGatherer runs the shield layers. It never fails; broken layers come
// back as unavailable signals.
type SignalGatherer interface {
	Gather(ctx context.Context, in shield.AssessInput) []guardian.Signal
}

// HintsSource returns weight hints, or fallback=true when static weights
// must be used.
type HintsSource interface {
	Fetch(ctx context.Context, walletID domain.WalletID) (*guardian.WeightHints, bool)
}

type LockdownService interface {
	Check(ctx context.Context, walletID domain.WalletID) (lockdown.Status, error)
	RecordBlock(ctx context.Context, walletID domain.WalletID) (bool, error)
}

type IncidentService interface {
	Open(ctx context.Context, d guardian.Decision) (*incident.Incident, error)
	StabilityIndex(ctx context.Context, walletID domain.WalletID, now time.Time) (float64, error)
}

type TokenIssuer interface {
	Issue(d guardian.Decision, walletID domain.WalletID, txDigest string) (*wsqk.Token, error)
}

// ComplianceAuditor records decision_made. Emit failures fail the
// evaluation.
type ComplianceAuditor interface {
	Emit(ctx context.Context, event audit.ComplianceEvent) error
}

type OpsTracker interface {
	Track(ctx context.Context, event audit.OpsEvent)
}
