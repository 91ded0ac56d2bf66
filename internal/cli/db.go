package cli

import (
	"context"
	"database/sql"
	"fmt"

	"guardian/internal/platform/config"
	"guardian/internal/platform/postgres"
	"guardian/internal/platform/sqlite"
)

// openDB opens the configured SQL backend, applying migrations when migrate
// is set. The memory backend has no database and returns nil.
func (a *app) openDB(ctx context.Context, migrate bool) (*sql.DB, error) {
	switch store := a.v.GetString("store"); store {
	case config.BackendMemory:
		return nil, nil
	case config.BackendSQLite:
		db, err := sqlite.Open(ctx, a.v.GetString("sqlite-path"))
		if err != nil {
			return nil, err
		}
		if migrate {
			if _, err := sqlite.Migrate(db); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		return db, nil
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, config.DatabaseConfig{URL: a.v.GetString("database-url")})
		if err != nil {
			return nil, err
		}
		if migrate {
			if _, err := postgres.Migrate(db, -1); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		return db, nil
	default:
		return nil, fmt.Errorf("store must be memory, sqlite or postgres, got %q", store)
	}
}
