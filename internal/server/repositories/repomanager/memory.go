package repomanager

import (
	"context"
	"database/sql"

	"github.com/r-scheele/authgate/internal/dbx"
	"github.com/r-scheele/authgate/internal/server/repositories/profiles"
	"github.com/r-scheele/authgate/internal/server/repositories/refreshtokens"
	"github.com/r-scheele/authgate/internal/server/repositories/verificationcodes"
)

// MemoryRepositoryManager vends shared in-memory repositories. The DBTX
// argument is ignored; there is no transactional isolation, which matches
// the core's contract of not assuming multi-document atomicity.
type MemoryRepositoryManager struct {
	profiles      *profiles.MemoryRepository
	refreshTokens *refreshtokens.MemoryRepository
	codes         *verificationcodes.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		profiles:      profiles.NewMemoryRepository(),
		refreshTokens: refreshtokens.NewMemoryRepository(),
		codes:         verificationcodes.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

func (m *MemoryRepositoryManager) Profiles(db dbx.DBTX) profiles.Repository {
	return m.profiles
}

func (m *MemoryRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return m.refreshTokens
}

func (m *MemoryRepositoryManager) VerificationCodes(db dbx.DBTX) verificationcodes.Repository {
	return m.codes
}
