package transferlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"tbt/internal/work/models"
	id "tbt/pkg/domain"
	"tbt/pkg/platform/sentinel"
	txcontext "tbt/pkg/platform/tx"
)

// PostgresStore writes the transfer log. A trigger rejects UPDATE and DELETE
// on the table, and a unique index stops a code being consumed twice per work.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const transferColumns = `id, work_id, from_owner_id, to_owner_id, transfer_type, transfer_code,
	new_owner_name, new_owner_phone, payment_status, payment_reference, completed_at`

func (s *PostgresStore) Append(ctx context.Context, t *models.Transfer) error {
	query := `
		INSERT INTO transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(t.ID),
		uuid.UUID(t.WorkID),
		uuid.UUID(t.FromOwnerID),
		uuid.UUID(t.ToOwnerID),
		string(t.Type),
		t.TransferCode,
		t.NewOwnerName,
		t.NewOwnerPhone,
		string(t.PaymentStatus),
		t.PaymentReference,
		t.CompletedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("insert transfer: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByWork(ctx context.Context, workID id.WorkID) ([]*models.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE work_id = $1 ORDER BY completed_at, id`
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, uuid.UUID(workID))
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var out []*models.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) FindByID(ctx context.Context, transferID id.TransferID) (*models.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE id = $1`
	return scanTransfer(txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(transferID)))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransfer(row rowScanner) (*models.Transfer, error) {
	var (
		t                          models.Transfer
		transferID, workID         uuid.UUID
		fromOwner, toOwner         uuid.UUID
		transferType, paymentState string
	)
	err := row.Scan(
		&transferID, &workID, &fromOwner, &toOwner, &transferType, &t.TransferCode,
		&t.NewOwnerName, &t.NewOwnerPhone, &paymentState, &t.PaymentReference, &t.CompletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan transfer: %w", err)
	}
	t.ID = id.TransferID(transferID)
	t.WorkID = id.WorkID(workID)
	t.FromOwnerID = id.UserID(fromOwner)
	t.ToOwnerID = id.UserID(toOwner)
	t.Type = models.TransferType(transferType)
	t.PaymentStatus = models.PaymentStatus(paymentState)
	return &t, nil
}
