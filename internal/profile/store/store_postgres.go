package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"tbt/internal/profile/models"
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

func (s *PostgresStore) Create(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO profiles (id, display_name, phone, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(p.ID), p.DisplayName, nullable(p.Phone), nullable(p.Email), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, p *models.Profile) error {
	query := `
		UPDATE profiles SET display_name = $2, phone = $3, email = $4, updated_at = $5
		WHERE id = $1
	`
	res, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(p.ID), p.DisplayName, nullable(p.Phone), nullable(p.Email), p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.Profile, error) {
	query := `SELECT id, display_name, phone, email, created_at, updated_at FROM profiles WHERE id = $1`
	var (
		p            models.Profile
		pid          uuid.UUID
		phone, email sql.NullString
	)
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(userID)).
		Scan(&pid, &p.DisplayName, &phone, &email, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	p.ID = id.UserID(pid)
	p.Phone = phone.String
	p.Email = email.String
	return &p, nil
}

func (s *PostgresStore) Exists(ctx context.Context, userID id.UserID) (bool, error) {
	var exists bool
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM profiles WHERE id = $1)`, uuid.UUID(userID)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check profile: %w", err)
	}
	return exists, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
