// Package profiles declares the repository contract for user profiles in
// persistent storage.
package profiles

import (
	"context"

	"github.com/r-scheele/authgate/internal/server/models"
)

// Repository defines operations for creating, finding, and partially
// updating user profiles.
type Repository interface {
	// Create persists a new profile. It returns common.ErrEmailAlreadyTaken
	// or common.ErrUsernameAlreadyTaken when a uniqueness invariant is
	// violated, identifying the offending field.
	Create(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error)

	// FindByEmail looks up a profile by its lower-cased email, returning
	// common.ErrorNotFound when absent.
	FindByEmail(ctx context.Context, email string) (*models.UserProfile, error)

	// FindByID looks up a profile by id, returning common.ErrorNotFound
	// when absent.
	FindByID(ctx context.Context, id string) (*models.UserProfile, error)

	// Update applies the non-nil fields of upd to the profile. Last write
	// wins; an empty update is a no-op.
	Update(ctx context.Context, id string, upd models.ProfileUpdate) error
}
