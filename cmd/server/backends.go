package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"guardian/internal/adaptive"
	hintstore "guardian/internal/adaptive/store"
	"guardian/internal/incident"
	incidentstore "guardian/internal/incident/store"
	"guardian/internal/lockdown"
	lockdownstore "guardian/internal/lockdown/store"
	"guardian/internal/platform/config"
	"guardian/internal/platform/postgres"
	"guardian/internal/platform/redis"
	"guardian/internal/platform/sqlite"
	"guardian/internal/profile"
	profilestore "guardian/internal/profile/store"
	"guardian/internal/shield/dqsn"
	reputationstore "guardian/internal/shield/dqsn/store"
	httptransport "guardian/internal/transport/http"
	"guardian/internal/wsqk"
	consumedstore "guardian/internal/wsqk/store"
	audit "guardian/pkg/platform/audit"
	auditmemory "guardian/pkg/platform/audit/store/memory"
	auditpostgres "guardian/pkg/platform/audit/store/postgres"
	auditsqlite "guardian/pkg/platform/audit/store/sqlite"
	txcontext "guardian/pkg/platform/tx"
)

// auditStore is an append-only event store that the relay can drain.
type auditStore interface {
	audit.Store
	audit.Outbox
}

// backends holds every store the server runs on. SQL-backed stores share one
// transaction runner so decision side effects commit together.
type backends struct {
	db    *sql.DB
	redis *redis.Client
	tx    txcontext.Runner

	profiles    profile.Store
	incidents   incident.Store
	lockdowns   lockdown.Store
	audit       auditStore
	hints       adaptive.Store
	reputations dqsn.Store
	consumed    wsqk.ConsumedStore

	health map[string]httptransport.HealthCheck
}

func openBackends(ctx context.Context, cfg config.Server, logger *slog.Logger) (*backends, error) {
	b := &backends{health: map[string]httptransport.HealthCheck{}}

	switch cfg.Store {
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		version, err := postgres.Migrate(db, -1)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.InfoContext(ctx, "postgres schema ready", "version", version)
		b.db = db
		b.profiles = profilestore.NewPostgres(db)
		b.incidents = incidentstore.NewPostgres(db)
		b.lockdowns = lockdownstore.NewPostgres(db)
		b.audit = auditpostgres.New(db)
	case config.BackendSQLite:
		db, err := sqlite.OpenMigrated(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		b.db = db
		b.profiles = profilestore.NewSQLite(db)
		b.incidents = incidentstore.NewSQLite(db)
		b.lockdowns = lockdownstore.NewSQLite(db)
		b.audit = auditsqlite.New(db)
	default:
		b.tx = txcontext.NoopRunner{}
		b.profiles = profilestore.NewInMemory()
		b.incidents = incidentstore.NewInMemory()
		b.lockdowns = lockdownstore.NewInMemory()
		b.audit = auditmemory.NewInMemoryStore()
	}
	if b.db != nil {
		b.tx = txcontext.NewSQLRunner(b.db, 0)
		b.health[cfg.Store] = b.db.PingContext
	}

	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if client != nil {
		b.redis = client
		// Lockdown counts join the decision transaction on SQL backends.
		if b.db == nil {
			b.lockdowns = lockdownstore.NewRedis(client.Client)
		}
		b.hints = hintstore.NewRedis(client.Client)
		b.reputations = reputationstore.NewRedis(client.Client)
		b.consumed = consumedstore.NewRedis(client.Client)
		b.health["redis"] = client.Health
		logger.InfoContext(ctx, "redis enabled", "lockdown", b.db == nil)
		return b, nil
	}
	b.hints = hintstore.NewInMemory()
	b.reputations = reputationstore.NewInMemory()
	b.consumed = consumedstore.NewInMemory()
	return b, nil
}

func (b *backends) Close() error {
	var errs []error
	if b.redis != nil {
		errs = append(errs, b.redis.Close())
	}
	if b.db != nil {
		errs = append(errs, b.db.Close())
	}
	return errors.Join(errs...)
}
