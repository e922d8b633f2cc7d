package repomanager

import (
	"github.com/dmitrijs2005/alert/internal/dbx"
	"github.com/dmitrijs2005/alert/internal/logging"
	"github.com/dmitrijs2005/alert/internal/server/migrations"
	"github.com/dmitrijs2005/alert/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and runs the postgres migrations.
type PostgresRepositoryManager struct {
	migrator
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager(logger logging.Logger) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{
		migrator: migrator{dialect: "postgres", dir: migrations.PostgresDir, logger: logger.With("module", "migrations")},
	}
}
