package custody

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"tbt/internal/settlement/models"
	id "tbt/pkg/domain"
	"tbt/pkg/platform/sentinel"
	txcontext "tbt/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Find(ctx context.Context, owner id.UserID) (*models.CustodialKey, error) {
	query := `
		SELECT owner_id, public_key, sealed_private_key, registered_at, created_at
		FROM custodial_keys
		WHERE owner_id = $1
	`
	var (
		k          models.CustodialKey
		ownerID    uuid.UUID
		registered sql.NullTime
	)
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(owner)).
		Scan(&ownerID, &k.PublicKey, &k.SealedPrivateKey, &registered, &k.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find custodial key: %w", err)
	}
	k.OwnerID = id.UserID(ownerID)
	if registered.Valid {
		at := registered.Time
		k.RegisteredAt = &at
	}
	return &k, nil
}

func (s *PostgresStore) Create(ctx context.Context, key *models.CustodialKey) error {
	query := `
		INSERT INTO custodial_keys (owner_id, public_key, sealed_private_key, registered_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	var registered sql.NullTime
	if key.RegisteredAt != nil {
		registered = sql.NullTime{Time: *key.RegisteredAt, Valid: true}
	}
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(key.OwnerID), key.PublicKey, key.SealedPrivateKey, registered, key.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create custodial key: %w", err)
	}
	return nil
}

// MarkRegistered records the first successful ledger registration only.
func (s *PostgresStore) MarkRegistered(ctx context.Context, owner id.UserID, at time.Time) error {
	res, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, `
		UPDATE custodial_keys
		SET registered_at = COALESCE(registered_at, $2)
		WHERE owner_id = $1
	`, uuid.UUID(owner), at)
	if err != nil {
		return fmt.Errorf("mark custodial key registered: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark custodial key registered: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
