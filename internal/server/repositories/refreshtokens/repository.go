// Package refreshtokens declares the repository contract for the refresh
// token ledger: the append-only chain of rotation records.
package refreshtokens

import (
	"context"

	"github.com/r-scheele/authgate/internal/server/models"
)

// Repository defines operations on ledger records. Records are created on
// every login and every successful rotation, and are only ever mutated to
// flip Valid to false; nothing is hard-deleted.
type Repository interface {
	// Create inserts a new ledger record. The record ID is the jti of the
	// signed token that will reference it.
	Create(ctx context.Context, token *models.RefreshToken) error

	// FindByID looks up a record by its jti, returning common.ErrorNotFound
	// when absent.
	FindByID(ctx context.Context, id string) (*models.RefreshToken, error)

	// Update applies the non-nil fields of upd to the record.
	Update(ctx context.Context, id string, upd models.RefreshTokenUpdate) error
}
