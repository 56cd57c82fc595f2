package verificationcodes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/r-scheele/authgate/internal/common"
	"github.com/r-scheele/authgate/internal/dbx"
	"github.com/r-scheele/authgate/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, code *models.VerificationCode) error {
	query := `
		INSERT INTO verification_codes (profile_id, email, code, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query, code.ProfileID, code.Email, code.Code, code.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.VerificationCode, error) {
	query := `
		SELECT profile_id, email, code, created_at
		FROM verification_codes
		WHERE email = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) FindByCode(ctx context.Context, code int) (*models.VerificationCode, error) {
	query := `
		SELECT profile_id, email, code, created_at
		FROM verification_codes
		WHERE code = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, code))
}

func (r *PostgresRepository) DeleteByEmail(ctx context.Context, email string) error {
	query := `DELETE FROM verification_codes WHERE email = $1`
	if _, err := r.db.ExecContext(ctx, query, email); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteByCode(ctx context.Context, code int) error {
	query := `DELETE FROM verification_codes WHERE code = $1`
	if _, err := r.db.ExecContext(ctx, query, code); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.VerificationCode, error) {
	c := &models.VerificationCode{}
	if err := row.Scan(&c.ProfileID, &c.Email, &c.Code, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}
