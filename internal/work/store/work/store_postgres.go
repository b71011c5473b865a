package work

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"tbt/internal/work/models"
	id "tbt/pkg/domain"
	"tbt/pkg/platform/sentinel"
	txcontext "tbt/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists works. The claim is a single conditional UPDATE so
// the database, not the application, decides which claimant wins.
type PostgresStore struct {
	db     *sql.DB
	runner *txcontext.PostgresRunner
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, runner: txcontext.NewPostgresRunner(db, 0)}
}

const workColumns = `id, tbt_id, title, creator_id, current_owner_id, transfer_code, transfer_status,
	claimant_id, claimed_at, market_price_minor, currency, royalty_type, royalty_value,
	token_id, certified_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, w *models.Work) error {
	query := `
		INSERT INTO works (` + workColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query, workArgs(w)...)
	if err != nil {
		return translate(err, "insert work")
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, workID id.WorkID) (*models.Work, error) {
	query := `SELECT ` + workColumns + ` FROM works WHERE id = $1`
	return scanWork(txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(workID)))
}

func (s *PostgresStore) FindByTBTID(ctx context.Context, tbtID string) (*models.Work, error) {
	query := `SELECT ` + workColumns + ` FROM works WHERE tbt_id = $1`
	return scanWork(txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, tbtID))
}

func (s *PostgresStore) FindActiveByCode(ctx context.Context, code string) (*models.Work, error) {
	query := `SELECT ` + workColumns + ` FROM works WHERE transfer_code = $1 AND transfer_status = 'active'`
	return scanWork(txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, code))
}

func (s *PostgresStore) ListByOwner(ctx context.Context, owner id.UserID) ([]*models.Work, error) {
	query := `SELECT ` + workColumns + ` FROM works WHERE current_owner_id = $1 ORDER BY certified_at DESC`
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, uuid.UUID(owner))
	if err != nil {
		return nil, fmt.Errorf("list works: %w", err)
	}
	defer rows.Close()

	var out []*models.Work
	for rows.Next() {
		w, err := scanWork(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// ClaimByCode flips active to pending (or takes over a stale or own pending
// claim) in one statement. No matching row means the code is not claimable.
func (s *PostgresStore) ClaimByCode(ctx context.Context, code string, claimant id.UserID, now, staleBefore time.Time) (*models.Work, error) {
	query := `
		UPDATE works
		SET transfer_status = 'pending', claimant_id = $2, claimed_at = $3, updated_at = $3
		WHERE transfer_code = $1
		  AND (transfer_status = 'active'
		       OR (transfer_status = 'pending' AND (claimant_id = $2 OR claimed_at < $4)))
		RETURNING ` + workColumns
	return scanWork(txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, code, uuid.UUID(claimant), now, staleBefore))
}

// Execute locks the row, validates, mutates and writes it back in one transaction.
func (s *PostgresStore) Execute(ctx context.Context, workID id.WorkID, validate func(*models.Work) error, mutate func(*models.Work)) (*models.Work, error) {
	var result *models.Work
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		exec := txcontext.Exec(ctx, s.db)
		query := `SELECT ` + workColumns + ` FROM works WHERE id = $1 FOR UPDATE`
		w, err := scanWork(exec.QueryRowContext(ctx, query, uuid.UUID(workID)))
		if err != nil {
			return err
		}
		if err := validate(w); err != nil {
			return err
		}
		mutate(w)

		update := `
			UPDATE works
			SET current_owner_id = $2, transfer_code = $3, transfer_status = $4,
			    claimant_id = $5, claimed_at = $6, token_id = $7, updated_at = $8
			WHERE id = $1
		`
		_, err = exec.ExecContext(ctx, update,
			uuid.UUID(w.ID),
			uuid.UUID(w.CurrentOwnerID),
			w.TransferCode,
			string(w.Status),
			nullableUser(w.ClaimantID),
			nullableTime(w.ClaimedAt),
			nullableString(w.TokenID),
			w.UpdatedAt,
		)
		if err != nil {
			return translate(err, "update work")
		}
		result = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReleaseExpired reverts pending works claimed before cutoff and returns their ids.
func (s *PostgresStore) ReleaseExpired(ctx context.Context, cutoff, now time.Time) ([]id.WorkID, error) {
	query := `
		UPDATE works
		SET transfer_status = 'active', claimant_id = NULL, claimed_at = NULL, updated_at = $2
		WHERE transfer_status = 'pending' AND claimed_at < $1
		RETURNING id
	`
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, cutoff, now)
	if err != nil {
		return nil, fmt.Errorf("release expired claims: %w", err)
	}
	defer rows.Close()

	var released []id.WorkID
	for rows.Next() {
		var workID uuid.UUID
		if err := rows.Scan(&workID); err != nil {
			return nil, fmt.Errorf("scan released work: %w", err)
		}
		released = append(released, id.WorkID(workID))
	}
	return released, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWork(row rowScanner) (*models.Work, error) {
	var (
		w                         models.Work
		workID, creator, owner    uuid.UUID
		claimant                  uuid.NullUUID
		claimedAt                 sql.NullTime
		tokenID                   sql.NullString
		status, currency, royalty string
	)
	err := row.Scan(
		&workID, &w.TBTID, &w.Title, &creator, &owner, &w.TransferCode, &status,
		&claimant, &claimedAt, &w.Terms.PriceMinor, &currency, &royalty, &w.Terms.RoyaltyValue,
		&tokenID, &w.CertifiedAt, &w.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan work: %w", err)
	}
	w.ID = id.WorkID(workID)
	w.CreatorID = id.UserID(creator)
	w.CurrentOwnerID = id.UserID(owner)
	w.Status = models.TransferStatus(status)
	w.Terms.Currency = currency
	w.Terms.RoyaltyType = models.RoyaltyType(royalty)
	if claimant.Valid {
		w.ClaimantID = id.UserID(claimant.UUID)
	}
	if claimedAt.Valid {
		w.ClaimedAt = claimedAt.Time
	}
	w.TokenID = tokenID.String
	return &w, nil
}

func workArgs(w *models.Work) []any {
	return []any{
		uuid.UUID(w.ID), w.TBTID, w.Title, uuid.UUID(w.CreatorID), uuid.UUID(w.CurrentOwnerID),
		w.TransferCode, string(w.Status), nullableUser(w.ClaimantID), nullableTime(w.ClaimedAt),
		w.Terms.PriceMinor, w.Terms.Currency, string(w.Terms.RoyaltyType), w.Terms.RoyaltyValue,
		nullableString(w.TokenID), w.CertifiedAt, w.UpdatedAt,
	}
}

func nullableUser(u id.UserID) uuid.NullUUID {
	return uuid.NullUUID{UUID: uuid.UUID(u), Valid: !u.IsNil()}
}

func nullableTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func translate(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %s: %w", op, pgErr.ConstraintName, sentinel.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}
