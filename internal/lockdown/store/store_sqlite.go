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

// SQLiteStore persists lockdown state in the embedded database using unix
// nanosecond timestamps.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Get(ctx context.Context, walletID domain.WalletID) (*lockdown.State, error) {
	row := txcontext.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+lockdownColumns+` FROM wallet_lockdowns WHERE wallet_id = ?`, walletID.String())
	st, err := scanSQLite(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lockdown state: %w", err)
	}
	return st, nil
}

func (s *SQLiteStore) RecordBlock(ctx context.Context, walletID domain.WalletID, now, windowCutoff time.Time) (*lockdown.State, error) {
	n, cutoff := now.UTC().UnixNano(), windowCutoff.UTC().UnixNano()
	row := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO wallet_lockdowns (wallet_id, block_count, window_start, locked_until, manual, reason, updated_at)
		VALUES (?1, 1, ?2, NULL, 0, '', ?2)
		ON CONFLICT (wallet_id) DO UPDATE SET
			block_count = CASE WHEN wallet_lockdowns.window_start <= ?3 THEN 1 ELSE wallet_lockdowns.block_count + 1 END,
			window_start = CASE WHEN wallet_lockdowns.window_start <= ?3 THEN ?2 ELSE wallet_lockdowns.window_start END,
			updated_at = ?2
		RETURNING `+lockdownColumns,
		walletID.String(), n, cutoff)
	st, err := scanSQLite(row)
	if err != nil {
		return nil, fmt.Errorf("record block: %w", err)
	}
	return st, nil
}

func (s *SQLiteStore) ApplyLock(ctx context.Context, walletID domain.WalletID, lockedUntil *time.Time, manual bool, reason string, now time.Time) error {
	var until sql.NullInt64
	if lockedUntil != nil {
		until = sql.NullInt64{Int64: lockedUntil.UTC().UnixNano(), Valid: true}
	}
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO wallet_lockdowns (wallet_id, block_count, window_start, locked_until, manual, reason, updated_at)
		VALUES (?1, 0, ?5, ?2, ?3, ?4, ?5)
		ON CONFLICT (wallet_id) DO UPDATE SET
			locked_until = excluded.locked_until,
			manual = excluded.manual,
			reason = excluded.reason,
			updated_at = excluded.updated_at`,
		walletID.String(), until, manual, reason, now.UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("apply lockdown: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context, walletID domain.WalletID) error {
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM wallet_lockdowns WHERE wallet_id = ?`, walletID.String())
	if err != nil {
		return fmt.Errorf("clear lockdown: %w", err)
	}
	return nil
}

func scanSQLite(row scanner) (*lockdown.State, error) {
	var (
		st          lockdown.State
		wallet      string
		windowStart int64
		lockedUntil sql.NullInt64
		updatedAt   int64
	)
	if err := row.Scan(&wallet, &st.BlockCount, &windowStart, &lockedUntil, &st.Manual, &st.Reason, &updatedAt); err != nil {
		return nil, err
	}
	st.WalletID = domain.WalletID(wallet)
	st.WindowStart = time.Unix(0, windowStart).UTC()
	st.UpdatedAt = time.Unix(0, updatedAt).UTC()
	if lockedUntil.Valid {
		t := time.Unix(0, lockedUntil.Int64).UTC()
		st.LockedUntil = &t
	}
	return &st, nil
}
