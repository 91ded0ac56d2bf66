// Package sqlite stores audit events in an embedded outbox for single-node
// deployments and the CLI.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"guardian/pkg/domain"
	audit "guardian/pkg/platform/audit"
	"guardian/pkg/platform/audit/store/outboxsql"
	txcontext "guardian/pkg/platform/tx"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	event, payload, err := audit.Seal(event)
	if err != nil {
		return err
	}
	_, err = txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO audit_outbox (event_id, category, wallet_id, action, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID.String(), string(event.Category), event.WalletID.String(), event.Action,
		string(payload), time.Now().UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// FetchUnpublished returns the oldest unpublished rows. SQLite serializes
// writers, so no row locking is needed.
func (s *Store) FetchUnpublished(ctx context.Context, limit int) ([]audit.OutboxEntry, error) {
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT id, payload FROM audit_outbox WHERE published_at IS NULL ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	return outboxsql.ScanEntries(rows)
}

func (s *Store) MarkPublished(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, time.Now().UTC().UnixNano())
	for _, id := range ids {
		args = append(args, id)
	}
	query := `UPDATE audit_outbox SET published_at = ? WHERE id IN (?` + strings.Repeat(",?", len(ids)-1) + `)`
	if _, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

func (s *Store) ListByWallet(ctx context.Context, walletID domain.WalletID) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM audit_outbox WHERE wallet_id = ? ORDER BY id DESC`, walletID.String())
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	return outboxsql.ScanEvents(rows)
}
