package verificationcodes

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

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

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+verification_codes`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	code := &models.VerificationCode{ProfileID: "p-1", Email: "a@example.com", Code: 123456, CreatedAt: time.Now()}
	if err := repo.Create(context.Background(), code); err != nil {
		t.Fatalf("Create error: %v", err)
	}
}

func TestFindByCode_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM verification_codes`).
		WithArgs(999999).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByCode(context.Background(), 999999)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected common.ErrorNotFound, got %v", err)
	}
}

func TestFindByEmail_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"profile_id", "email", "code", "created_at"}).
		AddRow("p-1", "a@example.com", 42424, time.Now())
	mock.ExpectQuery(`SELECT .* FROM verification_codes`).
		WithArgs("a@example.com").
		WillReturnRows(rows)

	c, err := repo.FindByEmail(context.Background(), "a@example.com")
	if err != nil {
		t.Fatalf("FindByEmail error: %v", err)
	}
	if c.Code != 42424 || c.ProfileID != "p-1" {
		t.Fatalf("unexpected code record: %+v", c)
	}
}

func TestDeleteByEmail_IsIdempotent(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM verification_codes WHERE email`).
		WithArgs("gone@example.com").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.DeleteByEmail(context.Background(), "gone@example.com"); err != nil {
		t.Fatalf("DeleteByEmail error: %v", err)
	}
}
