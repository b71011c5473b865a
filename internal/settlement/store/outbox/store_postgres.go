package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"tbt/internal/settlement/models"
	id "tbt/pkg/domain"
	"tbt/pkg/platform/sentinel"
	txcontext "tbt/pkg/platform/tx"
)

// PostgresStore keeps the outbox in settlement_actions. Enqueue joins the
// caller's transaction, so actions commit with the ownership change.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const actionColumns = `id, transfer_id, work_id, kind, payload, status, attempts,
	last_error, outcome, next_attempt_at, created_at, updated_at`

func (s *PostgresStore) Enqueue(ctx context.Context, actions []*models.Action) error {
	query := `
		INSERT INTO settlement_actions (` + actionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (transfer_id, kind) DO NOTHING
	`
	exec := txcontext.Exec(ctx, s.db)
	for _, a := range actions {
		payload, err := json.Marshal(a.Payload)
		if err != nil {
			return fmt.Errorf("marshal settlement payload: %w", err)
		}
		_, err = exec.ExecContext(ctx, query,
			uuid.UUID(a.ID), uuid.UUID(a.TransferID), uuid.UUID(a.WorkID),
			string(a.Kind), payload, string(a.Status), a.Attempts,
			a.LastError, a.Outcome, a.NextAttemptAt, a.CreatedAt, a.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("enqueue settlement action: %w", err)
		}
	}
	return nil
}

// ClaimDue leases due actions in one statement. SKIP LOCKED lets several
// workers poll the same table without handing out an action twice.
func (s *PostgresStore) ClaimDue(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]*models.Action, error) {
	query := `
		WITH due AS (
			SELECT id FROM settlement_actions
			WHERE status = 'pending' AND next_attempt_at <= $1
			ORDER BY next_attempt_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		UPDATE settlement_actions a
		SET next_attempt_at = $3
		FROM due
		WHERE a.id = due.id
		RETURNING a.id
	`
	rows, err := s.db.QueryContext(ctx, query, now, limit, now.Add(lease))
	if err != nil {
		return nil, fmt.Errorf("claim due settlement actions: %w", err)
	}
	var ids []string
	for rows.Next() {
		var actionID uuid.UUID
		if err := rows.Scan(&actionID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan claimed action: %w", err)
		}
		ids = append(ids, actionID.String())
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claimed actions: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	return s.query(ctx, `
		SELECT `+actionColumns+` FROM settlement_actions
		WHERE id = ANY($1::uuid[])
		ORDER BY created_at, kind
	`, pq.Array(ids))
}

func (s *PostgresStore) Save(ctx context.Context, a *models.Action) error {
	query := `
		UPDATE settlement_actions
		SET status = $2, attempts = $3, last_error = $4, outcome = $5,
			next_attempt_at = $6, updated_at = $7
		WHERE id = $1
	`
	res, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(a.ID), string(a.Status), a.Attempts, a.LastError, a.Outcome,
		a.NextAttemptAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save settlement action: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save settlement action: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListByTransfer(ctx context.Context, transferID id.TransferID, kinds ...models.Kind) ([]*models.Action, error) {
	if len(kinds) == 0 {
		return s.query(ctx, `
			SELECT `+actionColumns+` FROM settlement_actions
			WHERE transfer_id = $1
			ORDER BY created_at, kind
		`, uuid.UUID(transferID))
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return s.query(ctx, `
		SELECT `+actionColumns+` FROM settlement_actions
		WHERE transfer_id = $1 AND kind = ANY($2)
		ORDER BY created_at, kind
	`, uuid.UUID(transferID), pq.Array(names))
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.Action, error) {
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query settlement actions: %w", err)
	}
	defer rows.Close()

	var out []*models.Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settlement actions: %w", err)
	}
	return out, nil
}

func scanAction(rows *sql.Rows) (*models.Action, error) {
	var (
		a                          models.Action
		actionID, transfer, workID uuid.UUID
		kind, status               string
		payload                    []byte
	)
	err := rows.Scan(&actionID, &transfer, &workID, &kind, &payload, &status, &a.Attempts,
		&a.LastError, &a.Outcome, &a.NextAttemptAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan settlement action: %w", err)
	}
	if err := json.Unmarshal(payload, &a.Payload); err != nil {
		return nil, errors.Join(sentinel.ErrInvalidState, fmt.Errorf("decode settlement payload: %w", err))
	}
	a.ID = id.ActionID(actionID)
	a.TransferID = id.TransferID(transfer)
	a.WorkID = id.WorkID(workID)
	a.Kind = models.Kind(kind)
	a.Status = models.Status(status)
	return &a, nil
}
