package repomanager

import (
	"context"
	"database/sql"

	"github.com/mpc180222/messagely/internal/dbx"
	"github.com/mpc180222/messagely/internal/server/repositories/messages"
	"github.com/mpc180222/messagely/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Messages(db dbx.DBTX) messages.Repository
}
