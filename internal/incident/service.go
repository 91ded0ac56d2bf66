package incident

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"guardian/internal/guardian"
	"guardian/internal/incident/metrics"
	"guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
	audit "guardian/pkg/platform/audit"
	"guardian/pkg/platform/sentinel"
	"guardian/pkg/requestcontext"
)

// ComplianceAuditor records incident transitions. Emit failures fail the
// operation.
type ComplianceAuditor interface {
	Emit(ctx context.Context, event audit.ComplianceEvent) error
}

// OpsTracker receives sampled operational events.
type OpsTracker interface {
	Track(ctx context.Context, event audit.OpsEvent)
}

type Service struct {
	store           Store
	compliance      ComplianceAuditor
	ops             OpsTracker
	logger          *slog.Logger
	metrics         *metrics.Metrics
	retention       time.Duration
	stabilityWindow time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithComplianceAuditor(c ComplianceAuditor) Option {
	return func(s *Service) {
		s.compliance = c
	}
}

func WithOpsTracker(t OpsTracker) Option {
	return func(s *Service) {
		s.ops = t
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithRetention sets how long incidents are kept before Prune deletes them.
func WithRetention(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.retention = d
		}
	}
}

func WithStabilityWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.stabilityWindow = d
		}
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("incident store is required")
	}
	svc := &Service{
		store:           store,
		logger:          slog.Default(),
		retention:       DefaultRetention,
		stabilityWindow: DefaultStabilityWindow,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Open records an incident for a BLOCK or LOCKDOWN decision. Other verdicts
// are rejected with CodeInvariantViolation.
func (s *Service) Open(ctx context.Context, d guardian.Decision) (*Incident, error) {
	if d.Verdict != guardian.VerdictBlock && d.Verdict != guardian.VerdictLockdown {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "incidents are only opened for BLOCK or LOCKDOWN")
	}

	inc := &Incident{
		ID:            domain.NewIncidentID(),
		WalletID:      d.WalletID,
		DecisionID:    d.ID,
		Verdict:       d.Verdict,
		Score:         d.Score,
		Reasons:       slices.Clone(d.Reasons),
		PolicyVersion: d.PolicyVersion,
		CreatedAt:     d.EvaluatedAt,
	}
	if inc.CreatedAt.IsZero() {
		inc.CreatedAt = requestcontext.Now(ctx)
	}

	if err := s.store.Create(ctx, inc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to open incident")
	}
	if err := s.emit(ctx, audit.EventIncidentOpened, inc, strings.Join(inc.Reasons, ","), d.PolicyHash); err != nil {
		return nil, err
	}

	s.metrics.IncOpened(string(inc.Verdict))
	s.logger.InfoContext(ctx, "incident opened",
		"request_id", requestcontext.RequestID(ctx),
		"wallet_id", inc.WalletID,
		"incident_id", inc.ID,
		"verdict", inc.Verdict,
	)
	return inc, nil
}

// List returns the wallet's incidents, newest first.
func (s *Service) List(ctx context.Context, walletID domain.WalletID, limit int) ([]Incident, error) {
	incidents, err := s.store.ListByWallet(ctx, walletID, ClampLimit(limit))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list incidents")
	}
	return incidents, nil
}

// Resolve marks an incident resolved. Resolving twice is a conflict.
func (s *Service) Resolve(ctx context.Context, walletID domain.WalletID, id domain.IncidentID, note string) (*Incident, error) {
	inc, err := s.store.Resolve(ctx, walletID, id, requestcontext.Now(ctx), note)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "incident not found")
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeConflict, "incident already resolved")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve incident")
		}
	}
	if err := s.emit(ctx, audit.EventIncidentResolved, inc, inc.ResolutionNote, ""); err != nil {
		return nil, err
	}

	s.metrics.IncResolved()
	s.logger.InfoContext(ctx, "incident resolved",
		"request_id", requestcontext.RequestID(ctx),
		"wallet_id", walletID,
		"incident_id", id,
		"actor", requestcontext.Actor(ctx),
	)
	return inc, nil
}

// StabilityIndex computes the wallet's index at now.
func (s *Service) StabilityIndex(ctx context.Context, walletID domain.WalletID, now time.Time) (float64, error) {
	incidents, err := s.store.ListUnresolvedSince(ctx, walletID, now.Add(-s.stabilityWindow))
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load incidents")
	}
	return StabilityIndex(incidents, now, s.stabilityWindow), nil
}

// Prune deletes incidents older than the retention period.
func (s *Service) Prune(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.retention)
	n, err := s.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to prune incidents")
	}
	s.metrics.AddPruned(n)
	if n > 0 {
		s.logger.InfoContext(ctx, "incidents pruned", "count", n, "cutoff", cutoff)
		if s.ops != nil {
			s.ops.Track(ctx, audit.OpsEvent{
				Timestamp: now,
				WalletID:  "*",
				Subject:   cutoff.Format(time.RFC3339),
				Action:    audit.EventIncidentsPruned,
			})
		}
	}
	return n, nil
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, inc *Incident, reason, policyHash string) error {
	if s.compliance == nil {
		return nil
	}
	err := s.compliance.Emit(ctx, audit.ComplianceEvent{
		Timestamp:  requestcontext.Now(ctx),
		WalletID:   inc.WalletID,
		Subject:    inc.ID.String(),
		Action:     action,
		Decision:   string(inc.Verdict),
		Reason:     reason,
		PolicyHash: policyHash,
		RequestID:  requestcontext.RequestID(ctx),
		ActorID:    requestcontext.Actor(ctx),
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to audit incident")
	}
	return nil
}
