package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"guardian/internal/profile"
	"guardian/pkg/domain"
	txcontext "guardian/pkg/platform/tx"
)

var errNilProfile = errors.New("profile is required")

// PostgresStore persists profiles in the behavior_profiles table. Known sets
// are stored as JSONB arrays.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, walletID domain.WalletID) (*profile.Profile, error) {
	query := `
		SELECT wallet_id, tx_count, total_amount, max_amount, known_destinations, known_devices,
		       last_platform, day_start, day_count, days_observed, updated_at
		FROM behavior_profiles
		WHERE wallet_id = $1
	`
	var (
		p            profile.Profile
		wallet       string
		destinations []byte
		devices      []byte
		dayStart     sql.NullTime
	)
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, walletID.String()).Scan(
		&wallet, &p.TxCount, &p.TotalAmount, &p.MaxAmount, &destinations, &devices,
		&p.LastPlatform, &dayStart, &p.DayCount, &p.DaysObserved, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get behavior profile: %w", err)
	}
	p.WalletID = domain.WalletID(wallet)
	if dayStart.Valid {
		p.DayStart = dayStart.Time.UTC()
	}
	p.UpdatedAt = p.UpdatedAt.UTC()
	if err := decodeSets(&p, destinations, devices); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) Save(ctx context.Context, p *profile.Profile) error {
	if p == nil {
		return errNilProfile
	}
	destinations, devices, err := encodeSets(p)
	if err != nil {
		return err
	}
	var dayStart sql.NullTime
	if !p.DayStart.IsZero() {
		dayStart = sql.NullTime{Time: p.DayStart, Valid: true}
	}
	query := `
		INSERT INTO behavior_profiles (wallet_id, tx_count, total_amount, max_amount, known_destinations,
			known_devices, last_platform, day_start, day_count, days_observed, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (wallet_id) DO UPDATE SET
			tx_count = EXCLUDED.tx_count,
			total_amount = EXCLUDED.total_amount,
			max_amount = EXCLUDED.max_amount,
			known_destinations = EXCLUDED.known_destinations,
			known_devices = EXCLUDED.known_devices,
			last_platform = EXCLUDED.last_platform,
			day_start = EXCLUDED.day_start,
			day_count = EXCLUDED.day_count,
			days_observed = EXCLUDED.days_observed,
			updated_at = EXCLUDED.updated_at
	`
	_, err = txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		p.WalletID.String(),
		p.TxCount,
		p.TotalAmount,
		p.MaxAmount,
		string(destinations),
		string(devices),
		p.LastPlatform,
		dayStart,
		p.DayCount,
		p.DaysObserved,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save behavior profile: %w", err)
	}
	return nil
}

// Update serializes writers of one wallet with a transaction-scoped advisory
// lock, which also covers wallets that have no row yet. It joins the
// transaction in ctx or opens its own.
func (s *PostgresStore) Update(ctx context.Context, walletID domain.WalletID, fn profile.UpdateFunc) (*profile.Profile, error) {
	var next *profile.Profile
	err := txcontext.NewSQLRunner(s.db, 0).RunInTx(ctx, func(ctx context.Context) error {
		if _, err := txcontext.Executor(ctx, s.db).ExecContext(ctx,
			`SELECT pg_advisory_xact_lock(hashtext('behavior_profiles'), hashtext($1))`, walletID.String()); err != nil {
			return fmt.Errorf("lock behavior profile: %w", err)
		}
		var err error
		next, err = applyUpdate(ctx, s, walletID, fn)
		return err
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// applyUpdate is the read-modify-write shared by the SQL stores; the caller
// provides the isolation.
func applyUpdate(ctx context.Context, st profile.Store, walletID domain.WalletID, fn profile.UpdateFunc) (*profile.Profile, error) {
	current, err := st.Get(ctx, walletID)
	if err != nil {
		return nil, err
	}
	next := fn(current)
	if next == nil {
		return nil, errNilProfile
	}
	if err := st.Save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

func encodeSets(p *profile.Profile) ([]byte, []byte, error) {
	destinations, err := json.Marshal(nonNil(p.KnownDestinations))
	if err != nil {
		return nil, nil, fmt.Errorf("encode known destinations: %w", err)
	}
	devices, err := json.Marshal(nonNil(p.KnownDevices))
	if err != nil {
		return nil, nil, fmt.Errorf("encode known devices: %w", err)
	}
	return destinations, devices, nil
}

func decodeSets(p *profile.Profile, destinations, devices []byte) error {
	if err := json.Unmarshal(destinations, &p.KnownDestinations); err != nil {
		return fmt.Errorf("decode known destinations: %w", err)
	}
	if err := json.Unmarshal(devices, &p.KnownDevices); err != nil {
		return fmt.Errorf("decode known devices: %w", err)
	}
	return nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
