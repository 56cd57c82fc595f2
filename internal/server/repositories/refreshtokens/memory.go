package refreshtokens

import (
	"context"
	"sync"

	"github.com/r-scheele/authgate/internal/common"
	"github.com/r-scheele/authgate/internal/server/models"
)

// MemoryRepository is a mutex-guarded in-memory Repository used by tests and
// the in-memory repository manager.
type MemoryRepository struct {
	mu     sync.RWMutex
	tokens map[string]models.RefreshToken
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tokens: make(map[string]models.RefreshToken)}
}

func (r *MemoryRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token.ID] = *token
	return nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*models.RefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tokens[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := t
	return &cp, nil
}

func (r *MemoryRepository) Update(ctx context.Context, id string, upd models.RefreshTokenUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[id]
	if !ok {
		return common.ErrorNotFound
	}
	if upd.Valid != nil {
		t.Valid = *upd.Valid
	}
	if upd.InvalidatedAt != nil {
		ts := *upd.InvalidatedAt
		t.InvalidatedAt = &ts
	}
	r.tokens[id] = t
	return nil
}
