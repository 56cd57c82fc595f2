// Package verificationcodes declares the repository contract for the
// single-use numeric codes gating email verification.
package verificationcodes

import (
	"context"

	"github.com/r-scheele/authgate/internal/server/models"
)

// Repository defines operations on verification codes. Codes are looked up
// by value (not by email) at verification time; the per-email lookup serves
// the login gate and the replace-on-reissue rule.
type Repository interface {
	// Create persists a new code.
	Create(ctx context.Context, code *models.VerificationCode) error

	// FindByEmail returns the outstanding code for an email, or
	// common.ErrorNotFound.
	FindByEmail(ctx context.Context, email string) (*models.VerificationCode, error)

	// FindByCode returns the record matching the code value, or
	// common.ErrorNotFound.
	FindByCode(ctx context.Context, code int) (*models.VerificationCode, error)

	// DeleteByEmail removes the outstanding code for an email. Deleting a
	// non-existent code is not an error.
	DeleteByEmail(ctx context.Context, email string) error

	// DeleteByCode removes a code by its value. Deleting a non-existent
	// code is not an error.
	DeleteByCode(ctx context.Context, code int) error
}
