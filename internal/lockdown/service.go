package lockdown

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"guardian/internal/guardian"
	"guardian/internal/lockdown/metrics"
	"guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
	audit "guardian/pkg/platform/audit"
	"guardian/pkg/platform/audit/publishers/security"
	"guardian/pkg/requestcontext"
)

const maxManualDuration = 365 * 24 * time.Hour

type Service struct {
	store    Store
	security *security.Publisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
	policy   guardian.LockdownPolicy
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithSecurityPublisher(p *security.Publisher) Option {
	return func(s *Service) {
		s.security = p
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithPolicy sets the threshold, window and duration of automatic lockdowns.
func WithPolicy(p guardian.LockdownPolicy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("lockdown store is required")
	}
	svc := &Service{
		store:  store,
		logger: slog.Default(),
		policy: guardian.DefaultPolicy().Lockdown,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Check returns the wallet's lockdown status at the request time.
func (s *Service) Check(ctx context.Context, walletID domain.WalletID) (Status, error) {
	state, err := s.store.Get(ctx, walletID)
	if err != nil {
		return Status{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to get lockdown state")
	}
	status := statusOf(walletID, state, requestcontext.Now(ctx))
	s.metrics.IncCheck(status.Locked)
	return status, nil
}

// RecordBlock counts a BLOCK verdict and applies a lockdown once the policy
// threshold is reached within the window. It reports whether this call
// locked the wallet.
func (s *Service) RecordBlock(ctx context.Context, walletID domain.WalletID) (bool, error) {
	now := requestcontext.Now(ctx)
	state, err := s.store.RecordBlock(ctx, walletID, now, now.Add(-s.policy.Window.Std()))
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record block")
	}
	if state.IsLockedAt(now) || !state.ShouldLock(s.policy.BlockThreshold) {
		return false, nil
	}

	until := now.Add(s.policy.Duration.Std())
	if err := s.store.ApplyLock(ctx, walletID, &until, false, ReasonBlockThreshold, now); err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to apply lockdown")
	}
	s.metrics.IncTriggered("threshold")
	security.Log(ctx, s.logger, s.security, audit.EventLockdownTriggered, walletID,
		"reason", ReasonBlockThreshold,
		"severity", string(audit.SeverityCritical),
		"block_count", state.BlockCount,
		"locked_until", until,
	)
	return true, nil
}

// Lock freezes the wallet on operator request. A zero duration locks until
// cleared.
func (s *Service) Lock(ctx context.Context, walletID domain.WalletID, duration time.Duration, reason string) (Status, error) {
	if duration < 0 || duration > maxManualDuration {
		return Status{}, dErrors.New(dErrors.CodeValidation, "duration must be between 0 and 8760h")
	}
	if reason == "" {
		reason = ReasonManual
	}
	now := requestcontext.Now(ctx)
	var until *time.Time
	if duration > 0 {
		t := now.Add(duration)
		until = &t
	}
	if err := s.store.ApplyLock(ctx, walletID, until, true, reason, now); err != nil {
		return Status{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to apply lockdown")
	}
	s.metrics.IncTriggered("manual")
	security.Log(ctx, s.logger, s.security, audit.EventLockdownTriggered, walletID,
		"reason", reason,
		"severity", string(audit.SeverityCritical),
		"manual", true,
	)
	return Status{
		WalletID:    walletID,
		Locked:      true,
		LockedUntil: until,
		Manual:      true,
		Reason:      reason,
	}, nil
}

// Clear lifts any lockdown and resets the block count.
func (s *Service) Clear(ctx context.Context, walletID domain.WalletID) error {
	if err := s.store.Clear(ctx, walletID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear lockdown")
	}
	s.metrics.IncCleared()
	security.Log(ctx, s.logger, s.security, audit.EventLockdownCleared, walletID,
		"severity", string(audit.SeverityWarning),
	)
	return nil
}
