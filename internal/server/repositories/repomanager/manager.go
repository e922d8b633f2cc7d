package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/alert/internal/dbx"
	"github.com/dmitrijs2005/alert/internal/logging"
	"github.com/dmitrijs2005/alert/internal/server/config"
	"github.com/dmitrijs2005/alert/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX and manages the
// schema for one SQL dialect.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	RollbackMigration(ctx context.Context, db *sql.DB) error
	MigrationStatus(ctx context.Context, db *sql.DB) error
	MigrationVersion(ctx context.Context, db *sql.DB) (int64, error)
	Users(db dbx.DBTX) users.Repository
}

// NewRepositoryManager returns the manager for a database/sql driver name.
func NewRepositoryManager(driver string, logger logging.Logger) (RepositoryManager, error) {
	switch driver {
	case config.DriverPostgres:
		return NewPostgresRepositoryManager(logger), nil
	case config.DriverSQLite:
		return NewSQLiteRepositoryManager(logger), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
