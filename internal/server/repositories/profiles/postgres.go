package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/r-scheele/authgate/internal/common"
	"github.com/r-scheele/authgate/internal/dbx"
	"github.com/r-scheele/authgate/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by both
// *sql.DB and *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const uniqueViolation = "23505"

// Create inserts a new profile row. Uniqueness conflicts are mapped to the
// field-identifying sentinel errors by constraint name.
func (r *PostgresRepository) Create(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error) {
	query := `
		INSERT INTO profiles (id, username, email, password_hash, role, is_verified, registered_at, avatar_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		profile.ID, profile.Username, profile.Email, profile.PasswordHash,
		string(profile.Role), profile.IsVerified, profile.RegisteredAt, profile.AvatarID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "username") {
				return nil, common.ErrUsernameAlreadyTaken
			}
			return nil, common.ErrEmailAlreadyTaken
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return profile, nil
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	query := `
		SELECT id, username, email, password_hash, role, is_verified, last_login_at, registered_at, avatar_id
		FROM profiles
		WHERE email = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.UserProfile, error) {
	query := `
		SELECT id, username, email, password_hash, role, is_verified, last_login_at, registered_at, avatar_id
		FROM profiles
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// Update builds a SET clause from the non-nil fields of upd. An empty update
// returns immediately without touching the database.
func (r *PostgresRepository) Update(ctx context.Context, id string, upd models.ProfileUpdate) error {
	if upd.Empty() {
		return nil
	}

	set := make([]string, 0, 4)
	args := make([]any, 0, 5)
	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if upd.Username != nil {
		add("username", *upd.Username)
	}
	if upd.IsVerified != nil {
		add("is_verified", *upd.IsVerified)
	}
	if upd.LastLoginAt != nil {
		add("last_login_at", *upd.LastLoginAt)
	}
	if upd.AvatarID != nil {
		add("avatar_id", *upd.AvatarID)
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE profiles SET %s WHERE id = $%d`, strings.Join(set, ", "), len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.UserProfile, error) {
	p := &models.UserProfile{}
	var role string
	err := row.Scan(&p.ID, &p.Username, &p.Email, &p.PasswordHash, &role,
		&p.IsVerified, &p.LastLoginAt, &p.RegisteredAt, &p.AvatarID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	p.Role = models.Role(role)
	return p, nil
}
