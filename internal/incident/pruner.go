package incident

import (
	"context"
	"log/slog"
	"time"

	"guardian/pkg/requestcontext"
)

// Pruner runs Service.Prune on an interval.
type Pruner struct {
	service  *Service
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewPruner(service *Service, interval time.Duration, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Pruner{service: service, interval: interval, logger: logger, now: time.Now}
}

// Run prunes once immediately and then on every tick until ctx is
// cancelled. Failed runs are logged and retried on the next tick.
func (p *Pruner) Run(ctx context.Context) error {
	ctx = requestcontext.WithActor(ctx, "system")
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.runOnce(ctx)
	for {
		select {
		case <-ticker.C:
			p.runOnce(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *Pruner) runOnce(ctx context.Context) {
	if _, err := p.service.Prune(ctx, p.now().UTC()); err != nil && ctx.Err() == nil {
		p.logger.ErrorContext(ctx, "incident pruning failed", "error", err)
	}
}
