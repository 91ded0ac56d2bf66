package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"guardian/internal/guardian"
	"guardian/internal/incident"
	"guardian/pkg/domain"
	"guardian/pkg/platform/sentinel"
	txcontext "guardian/pkg/platform/tx"
)

var errNilIncident = errors.New("incident is required")

const incidentColumns = `id, wallet_id, decision_id, verdict, score, reasons, policy_version, created_at, resolved_at, resolution_note`

// PostgresStore persists incidents in the incidents table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, inc *incident.Incident) error {
	if inc == nil {
		return errNilIncident
	}
	reasons, err := encodeReasons(inc.Reasons)
	if err != nil {
		return err
	}
	var decisionID any
	if !inc.DecisionID.IsNil() {
		decisionID = uuid.UUID(inc.DecisionID)
	}
	_, err = txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO incidents (`+incidentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULL, '')`,
		uuid.UUID(inc.ID), inc.WalletID.String(), decisionID, string(inc.Verdict), inc.Score,
		reasons, inc.PolicyVersion, inc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert incident: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByWallet(ctx context.Context, walletID domain.WalletID, limit int) ([]incident.Incident, error) {
	return s.query(ctx, `
		SELECT `+incidentColumns+` FROM incidents
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, walletID.String(), limit)
}

func (s *PostgresStore) ListUnresolvedSince(ctx context.Context, walletID domain.WalletID, since time.Time) ([]incident.Incident, error) {
	return s.query(ctx, `
		SELECT `+incidentColumns+` FROM incidents
		WHERE wallet_id = $1 AND resolved_at IS NULL AND created_at >= $2
		ORDER BY created_at DESC, id DESC`, walletID.String(), since)
}

// Resolve uses a conditional update so concurrent resolutions cannot both
// succeed.
func (s *PostgresStore) Resolve(ctx context.Context, walletID domain.WalletID, id domain.IncidentID, at time.Time, note string) (*incident.Incident, error) {
	exec := txcontext.Executor(ctx, s.db)
	row := exec.QueryRowContext(ctx, `
		UPDATE incidents SET resolved_at = $3, resolution_note = $4
		WHERE id = $1 AND wallet_id = $2 AND resolved_at IS NULL
		RETURNING `+incidentColumns,
		uuid.UUID(id), walletID.String(), at, note,
	)
	inc, err := scanPostgres(row)
	if err == nil {
		return inc, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("resolve incident: %w", err)
	}

	var exists bool
	if err := exec.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM incidents WHERE id = $1 AND wallet_id = $2)`,
		uuid.UUID(id), walletID.String(),
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check incident: %w", err)
	}
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return nil, sentinel.ErrConflict
}

func (s *PostgresStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `DELETE FROM incidents WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune incidents: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune incidents rows affected: %w", err)
	}
	return int(n), nil
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]incident.Incident, error) {
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query incidents: %w", err)
	}
	defer rows.Close()

	out := make([]incident.Incident, 0)
	for rows.Next() {
		inc, err := scanPostgres(rows)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanPostgres(row scanner) (*incident.Incident, error) {
	var (
		inc        incident.Incident
		id         uuid.UUID
		decisionID uuid.NullUUID
		wallet     string
		verdict    string
		reasons    []byte
		resolvedAt sql.NullTime
	)
	if err := row.Scan(&id, &wallet, &decisionID, &verdict, &inc.Score, &reasons,
		&inc.PolicyVersion, &inc.CreatedAt, &resolvedAt, &inc.ResolutionNote); err != nil {
		return nil, err
	}
	inc.ID = domain.IncidentID(id)
	inc.WalletID = domain.WalletID(wallet)
	if decisionID.Valid {
		inc.DecisionID = domain.DecisionID(decisionID.UUID)
	}
	inc.Verdict = guardian.Verdict(verdict)
	inc.CreatedAt = inc.CreatedAt.UTC()
	if resolvedAt.Valid {
		t := resolvedAt.Time.UTC()
		inc.ResolvedAt = &t
	}
	if err := json.Unmarshal(reasons, &inc.Reasons); err != nil {
		return nil, fmt.Errorf("decode incident reasons: %w", err)
	}
	return &inc, nil
}

func encodeReasons(reasons []string) (string, error) {
	if reasons == nil {
		reasons = []string{}
	}
	b, err := json.Marshal(reasons)
	if err != nil {
		return "", fmt.Errorf("encode incident reasons: %w", err)
	}
	return string(b), nil
}
