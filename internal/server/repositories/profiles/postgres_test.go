package profiles

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/r-scheele/authgate/internal/common"
	"github.com/r-scheele/authgate/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func profileColumns() []string {
	return []string{"id", "username", "email", "password_hash", "role", "is_verified", "last_login_at", "registered_at", "avatar_id"}
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+profiles`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	username := "alice"
	p := &models.UserProfile{
		ID:           "11111111-1111-1111-1111-111111111111",
		Username:     &username,
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$hash",
		Role:         models.RoleUser,
		RegisteredAt: time.Now(),
	}
	got, err := repo.Create(context.Background(), p)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.Email != "alice@example.com" {
		t.Fatalf("unexpected profile: %+v", got)
	}
}

func TestCreate_EmailConflict(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "profiles_email_key"}
	mock.ExpectExec(`INSERT\s+INTO\s+profiles`).WillReturnError(pgErr)

	_, err := repo.Create(context.Background(), &models.UserProfile{Email: "dup@example.com"})
	if !errors.Is(err, common.ErrEmailAlreadyTaken) {
		t.Fatalf("expected ErrEmailAlreadyTaken, got %v", err)
	}
}

func TestCreate_UsernameConflict(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "profiles_username_key"}
	mock.ExpectExec(`INSERT\s+INTO\s+profiles`).WillReturnError(pgErr)

	_, err := repo.Create(context.Background(), &models.UserProfile{Email: "x@example.com"})
	if !errors.Is(err, common.ErrUsernameAlreadyTaken) {
		t.Fatalf("expected ErrUsernameAlreadyTaken, got %v", err)
	}
}

func TestFindByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM profiles`).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "ghost@example.com")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected common.ErrorNotFound, got %v", err)
	}
}

func TestFindByID_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	registered := time.Now().Add(-time.Hour)
	rows := sqlmock.NewRows(profileColumns()).
		AddRow("id-1", nil, "bob@example.com", "$2a$10$h", "MENTOR", true, nil, registered, "av-1")
	mock.ExpectQuery(`SELECT .* FROM profiles`).WithArgs("id-1").WillReturnRows(rows)

	p, err := repo.FindByID(context.Background(), "id-1")
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if p.Role != models.RoleMentor || !p.IsVerified || p.Username != nil {
		t.Fatalf("unexpected profile: %+v", p)
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	verified := true
	now := time.Now()
	mock.ExpectExec(`UPDATE profiles SET is_verified = \$1, last_login_at = \$2 WHERE id = \$3`).
		WithArgs(verified, now, "id-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "id-1", models.ProfileUpdate{IsVerified: &verified, LastLoginAt: &now})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
}

func TestUpdate_EmptyIsNoop(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	if err := repo.Update(context.Background(), "id-1", models.ProfileUpdate{}); err != nil {
		t.Fatalf("empty update should be a no-op, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected db activity: %v", err)
	}
}

func TestUpdate_MissingRow(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	verified := true
	mock.ExpectExec(`UPDATE profiles SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), "missing", models.ProfileUpdate{IsVerified: &verified})
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected common.ErrorNotFound, got %v", err)
	}
}
