package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	platformsqlite "guardian/internal/platform/sqlite"
	audit "guardian/pkg/platform/audit"
	txcontext "guardian/pkg/platform/tx"
)

func openStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	db, err := platformsqlite.OpenMigrated(context.Background(), filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db), db
}

func event(action audit.AuditEvent, subject string) audit.Event {
	return audit.Event{
		Timestamp: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		WalletID:  "wallet-1",
		Subject:   subject,
		Action:    string(action),
		Decision:  "BLOCK",
		RequestID: "req-1",
	}
}

func TestOutboxLifecycle(t *testing.T) {
	ctx := context.Background()
	s, _ := openStore(t)

	require.NoError(t, s.Append(ctx, event(audit.EventDecisionMade, "decision-1")))
	require.NoError(t, s.Append(ctx, event(audit.EventLockdownTriggered, "wallet-1")))

	entries, err := s.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "decision-1", entries[0].Event.Subject)
	assert.Equal(t, audit.CategoryCompliance, entries[0].Event.Category)
	assert.Equal(t, audit.CategorySecurity, entries[1].Event.Category)
	assert.NotEqual(t, entries[0].Event.ID, entries[1].Event.ID)

	require.NoError(t, s.MarkPublished(ctx, []int64{entries[0].ID}))
	remaining, err := s.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, entries[1].ID, remaining[0].ID)

	events, err := s.ListByWallet(ctx, "wallet-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, string(audit.EventLockdownTriggered), events[0].Action, "newest first")
	assert.Equal(t, "req-1", events[1].RequestID)
}

func TestAppendJoinsTransaction(t *testing.T) {
	ctx := context.Background()
	s, db := openStore(t)
	runner := txcontext.NewSQLRunner(db, 0)

	errRollback := errors.New("state change failed")
	err := runner.RunInTx(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Append(ctx, event(audit.EventDecisionMade, "decision-1")))
		return errRollback
	})
	require.ErrorIs(t, err, errRollback)

	events, err := s.ListByWallet(ctx, "wallet-1")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestMarkPublishedIgnoresEmpty(t *testing.T) {
	s, _ := openStore(t)
	assert.NoError(t, s.MarkPublished(context.Background(), nil))
}
