package claim

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"tbt/internal/transfer/models"
	id "tbt/pkg/domain"
	"tbt/pkg/platform/sentinel"
	txcontext "tbt/pkg/platform/tx"
)

const uniqueViolation = "23505"

type PostgresStore struct {
	db     *sql.DB
	runner *txcontext.PostgresRunner
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, runner: txcontext.NewPostgresRunner(db, 0)}
}

const claimColumns = `id, work_id, claimant_id, transfer_code, stage, title, tbt_id, price_minor, currency,
	royalty_type, royalty_value, royalty_amount_minor, new_owner_name, new_owner_phone, fee_minor,
	fee_currency, payment_reference, payment_status, failure_reason, transfer_id, client_device,
	created_at, updated_at, expires_at`

const openStages = `('details', 'payment')`

func (s *PostgresStore) Create(ctx context.Context, c *models.Claim) error {
	query := `
		INSERT INTO transfer_claims (` + claimColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`
	if _, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query, claimArgs(c)...); err != nil {
		return translate(err, "insert claim")
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, claimID id.ClaimID) (*models.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM transfer_claims WHERE id = $1`
	return scanClaim(txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(claimID)))
}

func (s *PostgresStore) FindOpenByWork(ctx context.Context, workID id.WorkID) (*models.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM transfer_claims WHERE work_id = $1 AND stage IN ` + openStages
	return scanClaim(txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(workID)))
}

func (s *PostgresStore) FindCompletedByCode(ctx context.Context, claimant id.UserID, code string) (*models.Claim, error) {
	query := `
		SELECT ` + claimColumns + ` FROM transfer_claims
		WHERE claimant_id = $1 AND transfer_code = $2 AND stage = 'complete'
		ORDER BY updated_at DESC
		LIMIT 1
	`
	return scanClaim(txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(claimant), code))
}

// Execute locks the row, validates and writes back the mutated claim.
func (s *PostgresStore) Execute(ctx context.Context, claimID id.ClaimID, validate func(*models.Claim) error, mutate func(*models.Claim)) (*models.Claim, error) {
	var out *models.Claim
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		exec := txcontext.Exec(ctx, s.db)
		query := `SELECT ` + claimColumns + ` FROM transfer_claims WHERE id = $1 FOR UPDATE`
		c, err := scanClaim(exec.QueryRowContext(ctx, query, uuid.UUID(claimID)))
		if err != nil {
			return err
		}
		if err := validate(c); err != nil {
			return err
		}
		mutate(c)

		update := `
			UPDATE transfer_claims SET
				stage = $2, new_owner_name = $3, new_owner_phone = $4, payment_reference = $5,
				payment_status = $6, failure_reason = $7, transfer_id = $8, updated_at = $9, expires_at = $10
			WHERE id = $1
		`
		_, err = exec.ExecContext(ctx, update,
			uuid.UUID(c.ID), string(c.Stage), c.NewOwnerName, c.NewOwnerPhone, c.PaymentReference,
			string(c.PaymentStatus), c.FailureReason, nullableTransfer(c.TransferID), c.UpdatedAt, c.ExpiresAt,
		)
		if err != nil {
			return translate(err, "update claim")
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) ListExpired(ctx context.Context, now time.Time, limit int) ([]*models.Claim, error) {
	query := `
		SELECT ` + claimColumns + ` FROM transfer_claims
		WHERE stage IN ` + openStages + ` AND expires_at <= $1
		ORDER BY expires_at
		LIMIT $2
	`
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired claims: %w", err)
	}
	defer rows.Close()

	var out []*models.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClaim(row rowScanner) (*models.Claim, error) {
	var (
		c                             models.Claim
		claimID, workID, claimant     uuid.UUID
		transferID                    uuid.NullUUID
		stage, paymentStatus, royalty string
	)
	err := row.Scan(
		&claimID, &workID, &claimant, &c.TransferCode, &stage, &c.Snapshot.Title, &c.Snapshot.TBTID,
		&c.Snapshot.PriceMinor, &c.Snapshot.Currency, &royalty, &c.Snapshot.RoyaltyValue,
		&c.Snapshot.RoyaltyAmountMinor, &c.NewOwnerName, &c.NewOwnerPhone, &c.Fee.AmountMinor,
		&c.Fee.Currency, &c.PaymentReference, &paymentStatus, &c.FailureReason, &transferID,
		&c.ClientDevice, &c.CreatedAt, &c.UpdatedAt, &c.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan claim: %w", err)
	}
	c.ID = id.ClaimID(claimID)
	c.WorkID = id.WorkID(workID)
	c.ClaimantID = id.UserID(claimant)
	c.Stage = models.Stage(stage)
	c.PaymentStatus = models.PaymentState(paymentStatus)
	c.Snapshot.RoyaltyType = royalty
	if transferID.Valid {
		c.TransferID = id.TransferID(transferID.UUID)
	}
	return &c, nil
}

func claimArgs(c *models.Claim) []any {
	return []any{
		uuid.UUID(c.ID), uuid.UUID(c.WorkID), uuid.UUID(c.ClaimantID), c.TransferCode, string(c.Stage),
		c.Snapshot.Title, c.Snapshot.TBTID, c.Snapshot.PriceMinor, c.Snapshot.Currency,
		c.Snapshot.RoyaltyType, c.Snapshot.RoyaltyValue, c.Snapshot.RoyaltyAmountMinor,
		c.NewOwnerName, c.NewOwnerPhone, c.Fee.AmountMinor, c.Fee.Currency, c.PaymentReference,
		string(c.PaymentStatus), c.FailureReason, nullableTransfer(c.TransferID), c.ClientDevice,
		c.CreatedAt, c.UpdatedAt, c.ExpiresAt,
	}
}

func nullableTransfer(t id.TransferID) uuid.NullUUID {
	return uuid.NullUUID{UUID: uuid.UUID(t), Valid: !t.IsNil()}
}

func translate(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %s: %w", op, pgErr.ConstraintName, sentinel.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}
