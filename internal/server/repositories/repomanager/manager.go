// Package repomanager hands out repositories bound to a database handle
// (either *sql.DB or a transaction) and owns schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/openaudit/internal/dbx"
	"github.com/dmitrijs2005/openaudit/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/openaudit/internal/server/repositories/refreshtokens"
)

type RepositoryManager interface {
	Accounts(db dbx.DBTX) accounts.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
