package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/r-scheele/authgate/internal/common"
	"github.com/r-scheele/authgate/internal/dbx"
	"github.com/r-scheele/authgate/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by both
// *sql.DB and *sql.Tx), so rotation can run inside a transaction.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, profile_id, issued_at, expires_at, previous_token_id, valid)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		token.ID, token.ProfileID, token.IssuedAt, token.ExpiresAt, token.PreviousTokenID, token.Valid)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.RefreshToken, error) {
	query := `
		SELECT id, profile_id, issued_at, expires_at, invalidated_at, previous_token_id, valid
		FROM refresh_tokens
		WHERE id = $1
	`
	token := &models.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&token.ID, &token.ProfileID, &token.IssuedAt, &token.ExpiresAt,
		&token.InvalidatedAt, &token.PreviousTokenID, &token.Valid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, upd models.RefreshTokenUpdate) error {
	set := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if upd.Valid != nil {
		args = append(args, *upd.Valid)
		set = append(set, fmt.Sprintf("valid = $%d", len(args)))
	}
	if upd.InvalidatedAt != nil {
		args = append(args, *upd.InvalidatedAt)
		set = append(set, fmt.Sprintf("invalidated_at = $%d", len(args)))
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE refresh_tokens SET %s WHERE id = $%d`, strings.Join(set, ", "), len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
