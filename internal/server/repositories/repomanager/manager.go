package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/deepnote/internal/dbx"
	"github.com/dmitrijs2005/deepnote/internal/server/repositories/notes"
	"github.com/dmitrijs2005/deepnote/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/deepnote/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a connection or a running
// transaction and migrates the schema.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Notes(db dbx.DBTX) notes.Repository
}
