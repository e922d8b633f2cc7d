package repomanager

import (
	"github.com/dmitrijs2005/alert/internal/dbx"
	"github.com/dmitrijs2005/alert/internal/logging"
	"github.com/dmitrijs2005/alert/internal/server/migrations"
	"github.com/dmitrijs2005/alert/internal/server/repositories/users"
	_ "modernc.org/sqlite"
)

// SQLiteRepositoryManager vends SQLite-backed repositories for local runs.
type SQLiteRepositoryManager struct {
	migrator
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *SQLiteRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLiteRepository(db)
}

func NewSQLiteRepositoryManager(logger logging.Logger) *SQLiteRepositoryManager {
	return &SQLiteRepositoryManager{
		migrator: migrator{dialect: "sqlite3", dir: migrations.SQLiteDir, logger: logger.With("module", "migrations")},
	}
}
