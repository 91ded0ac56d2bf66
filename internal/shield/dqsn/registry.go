package dqsn

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
	audit "guardian/pkg/platform/audit"
	"guardian/pkg/platform/audit/publishers/security"
	"guardian/pkg/requestcontext"
)

const maxSourceLength = 64

// Registry is the operator side of the reputation store.
type Registry struct {
	store    Store
	security *security.Publisher
	logger   *slog.Logger
}

type Option func(*Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

func WithSecurityPublisher(p *security.Publisher) Option {
	return func(r *Registry) {
		r.security = p
	}
}

func NewRegistry(store Store, opts ...Option) (*Registry, error) {
	if store == nil {
		return nil, errors.New("reputation store is required")
	}
	r := &Registry{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Registry) Get(ctx context.Context, addr domain.Address) (*Reputation, error) {
	rep, err := r.store.Get(ctx, addr)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to get reputation")
	}
	if rep == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "reputation not found")
	}
	return rep, nil
}

// Set records the reputation of addr and emits reputation_updated.
func (r *Registry) Set(ctx context.Context, addr domain.Address, level Level, source string) (*Reputation, error) {
	if addr == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "address is required")
	}
	if !level.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "level must be allow, suspicious or deny")
	}
	source = strings.TrimSpace(source)
	if len(source) > maxSourceLength {
		return nil, dErrors.New(dErrors.CodeValidation, "source is too long")
	}

	rep := Reputation{
		Address:   addr,
		Level:     level,
		Source:    source,
		UpdatedAt: requestcontext.Now(ctx),
	}
	if err := r.store.Set(ctx, rep); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to set reputation")
	}
	security.Log(ctx, r.logger, r.security, audit.EventReputationUpdated, "",
		"reason", string(level),
		"severity", string(audit.SeverityInfo),
		"address", addr,
	)
	return &rep, nil
}
