package repomanager

import (
	"context"
	"database/sql"

	"github.com/medvoice/medvoice/internal/dbx"
	"github.com/medvoice/medvoice/internal/server/repositories/recordings"
	"github.com/medvoice/medvoice/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to a DBTX so services can
// run the same repository code inside or outside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Recordings(db dbx.DBTX) recordings.Repository
}
