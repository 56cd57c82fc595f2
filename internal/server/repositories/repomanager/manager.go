// Package repomanager wires repository constructors together behind a single
// interface so services can obtain store handles bound to either a plain
// connection or a transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/r-scheele/authgate/internal/dbx"
	"github.com/r-scheele/authgate/internal/server/repositories/profiles"
	"github.com/r-scheele/authgate/internal/server/repositories/refreshtokens"
	"github.com/r-scheele/authgate/internal/server/repositories/verificationcodes"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Profiles(db dbx.DBTX) profiles.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	VerificationCodes(db dbx.DBTX) verificationcodes.Repository
}
