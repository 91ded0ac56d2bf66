package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"guardian/internal/profile"
	"guardian/pkg/domain"
	txcontext "guardian/pkg/platform/tx"
)

// SQLiteStore persists profiles in the embedded database. Timestamps are
// unix nanoseconds; known sets are JSON text.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Get(ctx context.Context, walletID domain.WalletID) (*profile.Profile, error) {
	var (
		p            profile.Profile
		wallet       string
		destinations string
		devices      string
		dayStart     int64
		updatedAt    int64
	)
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, `
		SELECT wallet_id, tx_count, total_amount, max_amount, known_destinations, known_devices,
		       last_platform, day_start, day_count, days_observed, updated_at
		FROM behavior_profiles WHERE wallet_id = ?`, walletID.String()).Scan(
		&wallet, &p.TxCount, &p.TotalAmount, &p.MaxAmount, &destinations, &devices,
		&p.LastPlatform, &dayStart, &p.DayCount, &p.DaysObserved, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get behavior profile: %w", err)
	}
	p.WalletID = domain.WalletID(wallet)
	p.DayStart = fromNanos(dayStart)
	p.UpdatedAt = fromNanos(updatedAt)
	if err := decodeSets(&p, []byte(destinations), []byte(devices)); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLiteStore) Save(ctx context.Context, p *profile.Profile) error {
	if p == nil {
		return errNilProfile
	}
	destinations, devices, err := encodeSets(p)
	if err != nil {
		return err
	}
	_, err = txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO behavior_profiles (wallet_id, tx_count, total_amount, max_amount, known_destinations,
			known_devices, last_platform, day_start, day_count, days_observed, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (wallet_id) DO UPDATE SET
			tx_count = excluded.tx_count,
			total_amount = excluded.total_amount,
			max_amount = excluded.max_amount,
			known_destinations = excluded.known_destinations,
			known_devices = excluded.known_devices,
			last_platform = excluded.last_platform,
			day_start = excluded.day_start,
			day_count = excluded.day_count,
			days_observed = excluded.days_observed,
			updated_at = excluded.updated_at`,
		p.WalletID.String(), p.TxCount, p.TotalAmount, p.MaxAmount, string(destinations),
		string(devices), p.LastPlatform, toNanos(p.DayStart), p.DayCount, p.DaysObserved,
		toNanos(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save behavior profile: %w", err)
	}
	return nil
}

// Update runs in the transaction in ctx or its own. The pool holds a single
// connection, so transactions never interleave.
func (s *SQLiteStore) Update(ctx context.Context, walletID domain.WalletID, fn profile.UpdateFunc) (*profile.Profile, error) {
	var next *profile.Profile
	err := txcontext.NewSQLRunner(s.db, 0).RunInTx(ctx, func(ctx context.Context) error {
		var err error
		next, err = applyUpdate(ctx, s, walletID, fn)
		return err
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
