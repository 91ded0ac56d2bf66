package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"guardian/internal/guardian"
	"guardian/internal/incident"
	"guardian/pkg/domain"
	"guardian/pkg/platform/sentinel"
	txcontext "guardian/pkg/platform/tx"
)

// SQLiteStore persists incidents in the embedded database. Ids are text
// UUIDs and timestamps unix nanoseconds.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Create(ctx context.Context, inc *incident.Incident) error {
	if inc == nil {
		return errNilIncident
	}
	reasons, err := encodeReasons(inc.Reasons)
	if err != nil {
		return err
	}
	decisionID := ""
	if !inc.DecisionID.IsNil() {
		decisionID = inc.DecisionID.String()
	}
	_, err = txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO incidents (`+incidentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL, '')`,
		inc.ID.String(), inc.WalletID.String(), decisionID, string(inc.Verdict), inc.Score,
		reasons, inc.PolicyVersion, inc.CreatedAt.UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert incident: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListByWallet(ctx context.Context, walletID domain.WalletID, limit int) ([]incident.Incident, error) {
	return s.query(ctx, `
		SELECT `+incidentColumns+` FROM incidents
		WHERE wallet_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, walletID.String(), limit)
}

func (s *SQLiteStore) ListUnresolvedSince(ctx context.Context, walletID domain.WalletID, since time.Time) ([]incident.Incident, error) {
	return s.query(ctx, `
		SELECT `+incidentColumns+` FROM incidents
		WHERE wallet_id = ? AND resolved_at IS NULL AND created_at >= ?
		ORDER BY created_at DESC, id DESC`, walletID.String(), since.UTC().UnixNano())
}

func (s *SQLiteStore) Resolve(ctx context.Context, walletID domain.WalletID, id domain.IncidentID, at time.Time, note string) (*incident.Incident, error) {
	exec := txcontext.Executor(ctx, s.db)
	res, err := exec.ExecContext(ctx, `
		UPDATE incidents SET resolved_at = ?, resolution_note = ?
		WHERE id = ? AND wallet_id = ? AND resolved_at IS NULL`,
		at.UTC().UnixNano(), note, id.String(), walletID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("resolve incident: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("resolve incident rows affected: %w", err)
	}

	row := exec.QueryRowContext(ctx,
		`SELECT `+incidentColumns+` FROM incidents WHERE id = ? AND wallet_id = ?`,
		id.String(), walletID.String())
	inc, err := scanSQLite(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load incident: %w", err)
	}
	if affected == 0 {
		return nil, sentinel.ErrConflict
	}
	return inc, nil
}

func (s *SQLiteStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM incidents WHERE created_at < ?`, cutoff.UTC().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune incidents: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune incidents rows affected: %w", err)
	}
	return int(n), nil
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]incident.Incident, error) {
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query incidents: %w", err)
	}
	defer rows.Close()

	out := make([]incident.Incident, 0)
	for rows.Next() {
		inc, err := scanSQLite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incidents: %w", err)
	}
	return out, nil
}

func scanSQLite(row scanner) (*incident.Incident, error) {
	var (
		inc        incident.Incident
		id         string
		decisionID string
		wallet     string
		verdict    string
		reasons    string
		createdAt  int64
		resolvedAt sql.NullInt64
	)
	if err := row.Scan(&id, &wallet, &decisionID, &verdict, &inc.Score, &reasons,
		&inc.PolicyVersion, &createdAt, &resolvedAt, &inc.ResolutionNote); err != nil {
		return nil, err
	}
	parsed, err := domain.ParseIncidentID(id)
	if err != nil {
		return nil, fmt.Errorf("decode incident id: %w", err)
	}
	inc.ID = parsed
	if decisionID != "" {
		if inc.DecisionID, err = domain.ParseDecisionID(decisionID); err != nil {
			return nil, fmt.Errorf("decode decision id: %w", err)
		}
	}
	inc.WalletID = domain.WalletID(wallet)
	inc.Verdict = guardian.Verdict(verdict)
	inc.CreatedAt = time.Unix(0, createdAt).UTC()
	if resolvedAt.Valid {
		t := time.Unix(0, resolvedAt.Int64).UTC()
		inc.ResolvedAt = &t
	}
	if err := json.Unmarshal([]byte(reasons), &inc.Reasons); err != nil {
		return nil, fmt.Errorf("decode incident reasons: %w", err)
	}
	return &inc, nil
}
