package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lockdownstore "guardian/internal/lockdown/store"
	"guardian/internal/platform/config"
	txcontext "guardian/pkg/platform/tx"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenBackends_Memory(t *testing.T) {
	b, err := openBackends(context.Background(), config.Server{Store: config.BackendMemory}, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	assert.IsType(t, txcontext.NoopRunner{}, b.tx)
	assert.IsType(t, &lockdownstore.InMemoryStore{}, b.lockdowns)
	assert.Empty(t, b.health)
}

func TestOpenBackends_SQLiteSharesTransaction(t *testing.T) {
	cfg := config.Server{Store: config.BackendSQLite}
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "guardian.db")

	b, err := openBackends(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	assert.IsType(t, &txcontext.SQLRunner{}, b.tx)
	assert.IsType(t, &lockdownstore.SQLiteStore{}, b.lockdowns)
	assert.Contains(t, b.health, config.BackendSQLite)
}
