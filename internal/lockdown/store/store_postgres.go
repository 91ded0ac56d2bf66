package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"guardian/internal/lockdown"
	"guardian/pkg/domain"
	txcontext "guardian/pkg/platform/tx"
)

// PostgresStore persists lockdown state in wallet_lockdowns. It is pure
// I/O; thresholds and durations are decided by the service.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const lockdownColumns = `wallet_id, block_count, window_start, locked_until, manual, reason, updated_at`

func (s *PostgresStore) Get(ctx context.Context, walletID domain.WalletID) (*lockdown.State, error) {
	row := txcontext.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+lockdownColumns+` FROM wallet_lockdowns WHERE wallet_id = $1`, walletID.String())
	st, err := scanPostgres(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lockdown state: %w", err)
	}
	return st, nil
}

// RecordBlock increments the count in a single upsert so concurrent blocks
// cannot lose updates.
func (s *PostgresStore) RecordBlock(ctx context.Context, walletID domain.WalletID, now, windowCutoff time.Time) (*lockdown.State, error) {
	query := `
		INSERT INTO wallet_lockdowns (wallet_id, block_count, window_start, locked_until, manual, reason, updated_at)
		VALUES ($1, 1, $2, NULL, FALSE, '', $2)
		ON CONFLICT (wallet_id) DO UPDATE SET
			block_count = CASE WHEN wallet_lockdowns.window_start <= $3 THEN 1 ELSE wallet_lockdowns.block_count + 1 END,
			window_start = CASE WHEN wallet_lockdowns.window_start <= $3 THEN $2 ELSE wallet_lockdowns.window_start END,
			updated_at = $2
		RETURNING ` + lockdownColumns
	st, err := scanPostgres(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, walletID.String(), now, windowCutoff))
	if err != nil {
		return nil, fmt.Errorf("record block: %w", err)
	}
	return st, nil
}

func (s *PostgresStore) ApplyLock(ctx context.Context, walletID domain.WalletID, lockedUntil *time.Time, manual bool, reason string, now time.Time) error {
	query := `
		INSERT INTO wallet_lockdowns (wallet_id, block_count, window_start, locked_until, manual, reason, updated_at)
		VALUES ($1, 0, $5, $2, $3, $4, $5)
		ON CONFLICT (wallet_id) DO UPDATE SET
			locked_until = EXCLUDED.locked_until,
			manual = EXCLUDED.manual,
			reason = EXCLUDED.reason,
			updated_at = EXCLUDED.updated_at
	`
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		walletID.String(), nullTime(lockedUntil), manual, reason, now)
	if err != nil {
		return fmt.Errorf("apply lockdown: %w", err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context, walletID domain.WalletID) error {
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM wallet_lockdowns WHERE wallet_id = $1`, walletID.String())
	if err != nil {
		return fmt.Errorf("clear lockdown: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPostgres(row scanner) (*lockdown.State, error) {
	var (
		st          lockdown.State
		wallet      string
		lockedUntil sql.NullTime
	)
	if err := row.Scan(&wallet, &st.BlockCount, &st.WindowStart, &lockedUntil, &st.Manual, &st.Reason, &st.UpdatedAt); err != nil {
		return nil, err
	}
	st.WalletID = domain.WalletID(wallet)
	st.WindowStart = st.WindowStart.UTC()
	st.UpdatedAt = st.UpdatedAt.UTC()
	if lockedUntil.Valid {
		t := lockedUntil.Time.UTC()
		st.LockedUntil = &t
	}
	return &st, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
