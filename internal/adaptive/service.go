package adaptive

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"guardian/internal/adaptive/metrics"
	"guardian/internal/guardian"
	"guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
	audit "guardian/pkg/platform/audit"
	"guardian/pkg/platform/audit/publishers/security"
	"guardian/pkg/platform/circuit"
	"guardian/pkg/requestcontext"
)

// Service reads hints through a circuit breaker and publishes operator
// hints.
type Service struct {
	store    Store
	breaker  *circuit.Breaker
	security *security.Publisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
	ttl      time.Duration
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

func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Service) {
		if b != nil {
			s.breaker = b
		}
	}
}

// WithTTL sets how long published hints stay valid.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("hints store is required")
	}
	s := &Service{
		store:   store,
		breaker: circuit.New("adaptive_hints"),
		logger:  slog.Default(),
		ttl:     DefaultTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Fetch returns the hints for a wallet. fallback is true when the source
// failed or the circuit is open; the caller then uses static weights. A
// wallet without hints is not a fallback.
func (s *Service) Fetch(ctx context.Context, walletID domain.WalletID) (hints *guardian.WeightHints, fallback bool) {
	hints, err := s.store.Hints(ctx, walletID)
	if err != nil {
		_, change := s.breaker.RecordFailure()
		s.onChange(ctx, walletID, change, err)
		s.metrics.IncLookup("error")
		s.logger.WarnContext(ctx, "weight hints unavailable, using static weights",
			"request_id", requestcontext.RequestID(ctx),
			"wallet_id", walletID,
			"error", err,
		)
		return nil, true
	}

	usePrimary, change := s.breaker.RecordSuccess()
	s.onChange(ctx, walletID, change, nil)
	if !usePrimary {
		s.metrics.IncLookup("fallback")
		return nil, true
	}
	if hints == nil {
		s.metrics.IncLookup("miss")
		return nil, false
	}
	s.metrics.IncLookup("hit")
	return hints, false
}

func (s *Service) onChange(ctx context.Context, walletID domain.WalletID, change circuit.StateChange, cause error) {
	switch {
	case change.Opened:
		s.metrics.SetCircuitOpen(true)
		security.Log(ctx, s.logger, s.security, audit.EventHintsFallback, walletID,
			"reason", "circuit_open",
			"severity", string(audit.SeverityWarning),
			"error", cause,
		)
	case change.Closed:
		s.metrics.SetCircuitOpen(false)
		s.logger.InfoContext(ctx, "weight hints circuit closed",
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

// Publish stores hints for a wallet, or the global hints when walletID is
// empty.
func (s *Service) Publish(ctx context.Context, walletID domain.WalletID, hints guardian.WeightHints) (*guardian.WeightHints, error) {
	if err := ValidateHints(hints); err != nil {
		return nil, err
	}
	if hints.IssuedAt.IsZero() {
		hints.IssuedAt = requestcontext.Now(ctx)
	}
	if err := s.store.Publish(ctx, walletID, hints, s.ttl); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to publish hints")
	}
	s.metrics.IncPublished()
	security.Log(ctx, s.logger, s.security, audit.EventHintsPublished, walletID,
		"reason", hints.Version,
		"severity", string(audit.SeverityInfo),
	)
	return &hints, nil
}
