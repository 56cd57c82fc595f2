package profiles

import (
	"context"
	"sync"

	"github.com/r-scheele/authgate/internal/common"
	"github.com/r-scheele/authgate/internal/server/models"
)

// MemoryRepository is a mutex-guarded in-memory Repository used by tests and
// the in-memory repository manager.
type MemoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]models.UserProfile
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{profiles: make(map[string]models.UserProfile)}
}

func (r *MemoryRepository) Create(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.Email == profile.Email {
			return nil, common.ErrEmailAlreadyTaken
		}
		if p.Username != nil && profile.Username != nil && *p.Username == *profile.Username {
			return nil, common.ErrUsernameAlreadyTaken
		}
	}
	r.profiles[profile.ID] = *profile
	return profile, nil
}

func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.profiles {
		if p.Email == email {
			cp := p
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*models.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := p
	return &cp, nil
}

func (r *MemoryRepository) Update(ctx context.Context, id string, upd models.ProfileUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return common.ErrorNotFound
	}
	if upd.Username != nil {
		u := *upd.Username
		p.Username = &u
	}
	if upd.IsVerified != nil {
		p.IsVerified = *upd.IsVerified
	}
	if upd.LastLoginAt != nil {
		ts := *upd.LastLoginAt
		p.LastLoginAt = &ts
	}
	if upd.AvatarID != nil {
		p.AvatarID = *upd.AvatarID
	}
	r.profiles[id] = p
	return nil
}
