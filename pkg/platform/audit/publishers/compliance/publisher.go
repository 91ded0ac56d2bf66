// Package compliance publishes the audit events a regulator may ask for:
// every decision and every incident transition. Emit is synchronous and fails
// closed. When ctx carries a transaction the outbox row joins it, so a failed
// audit rolls the decision back with it.
package compliance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	audit "guardian/pkg/platform/audit"
	"guardian/pkg/requestcontext"
)

type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *audit.Metrics
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *audit.Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit persists event. Request id and actor default to the values on ctx.
func (p *Publisher) Emit(ctx context.Context, event audit.ComplianceEvent) error {
	if err := validate(event); err != nil {
		return err
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ActorID == "" {
		event.ActorID = requestcontext.Actor(ctx)
	}

	start := time.Now()
	if err := p.store.Append(ctx, event.ToEvent()); err != nil {
		p.metrics.IncPersistFailures(audit.CategoryCompliance)
		p.logger.ErrorContext(ctx, "compliance audit write failed",
			"request_id", event.RequestID,
			"wallet_id", event.WalletID,
			"action", event.Action,
			"subject", event.Subject,
			"error", err,
		)
		return fmt.Errorf("compliance audit persistence failed: %w", err)
	}
	p.metrics.ObservePersistDuration(audit.CategoryCompliance, time.Since(start).Seconds())
	p.metrics.IncEmitted(audit.CategoryCompliance)
	return nil
}

func validate(e audit.ComplianceEvent) error {
	switch {
	case e.WalletID == "":
		return errors.New("compliance event requires a wallet id")
	case e.Action == "":
		return errors.New("compliance event requires an action")
	case e.Subject == "":
		return errors.New("compliance event requires a subject")
	}
	return nil
}
