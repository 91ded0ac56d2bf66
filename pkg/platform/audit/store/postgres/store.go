// Package postgres is the transactional outbox for audit events. Rows are
// written in the caller's transaction and relayed to Kafka by the outbox
// worker.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

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
		VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, string(event.Category), event.WalletID.String(), event.Action, payload, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// FetchUnpublished returns the oldest unpublished rows. Inside a transaction
// the rows stay locked (SKIP LOCKED) until commit, so two relays never claim
// the same row.
func (s *Store) FetchUnpublished(ctx context.Context, limit int) ([]audit.OutboxEntry, error) {
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, `
		SELECT id, payload FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT $1
		FOR UPDATE SKIP LOCKED`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	return outboxsql.ScanEntries(rows)
}

func (s *Store) MarkPublished(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx,
		`UPDATE audit_outbox SET published_at = $1 WHERE id = ANY($2)`, time.Now().UTC(), pq.Array(ids))
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

// ListByWallet returns a wallet's events, newest first.
func (s *Store) ListByWallet(ctx context.Context, walletID domain.WalletID) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM audit_outbox WHERE wallet_id = $1 ORDER BY id DESC`, walletID.String())
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	return outboxsql.ScanEvents(rows)
}
