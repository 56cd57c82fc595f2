package verificationcodes

import (
	"context"
	"sync"

	"github.com/r-scheele/authgate/internal/common"
	"github.com/r-scheele/authgate/internal/server/models"
)

// MemoryRepository is a mutex-guarded in-memory Repository used by tests and
// the in-memory repository manager. Keyed by email, matching the one
// outstanding code per email invariant.
type MemoryRepository struct {
	mu    sync.RWMutex
	codes map[string]models.VerificationCode
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{codes: make(map[string]models.VerificationCode)}
}

func (r *MemoryRepository) Create(ctx context.Context, code *models.VerificationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes[code.Email] = *code
	return nil
}

func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) (*models.VerificationCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codes[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := c
	return &cp, nil
}

func (r *MemoryRepository) FindByCode(ctx context.Context, code int) (*models.VerificationCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.codes {
		if c.Code == code {
			cp := c
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) DeleteByEmail(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.codes, email)
	return nil
}

func (r *MemoryRepository) DeleteByCode(ctx context.Context, code int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for email, c := range r.codes {
		if c.Code == code {
			delete(r.codes, email)
			return nil
		}
	}
	return nil
}
