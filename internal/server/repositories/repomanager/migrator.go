// Package repomanager wires repository constructors to a SQL dialect and runs
// the embedded goose migrations for it.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/alert/internal/logging"
	"github.com/dmitrijs2005/alert/internal/server/migrations"
	"github.com/pressly/goose/v3"
)

// Seams for testing the goose entry points.
var (
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.UpContext(ctx, db, dir, opts...)
	}
	gooseDownContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.DownContext(ctx, db, dir, opts...)
	}
	gooseStatusContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.StatusContext(ctx, db, dir, opts...)
	}
	gooseVersionContext = func(ctx context.Context, db *sql.DB) (int64, error) {
		return goose.GetDBVersionContext(ctx, db)
	}
)

// migrator runs goose against one directory of migrations.Migrations.
type migrator struct {
	dialect string
	dir     string
	logger  logging.Logger
}

func (m *migrator) setup() error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(&gooseLogger{l: m.logger})
	return goose.SetDialect(m.dialect)
}

// RunMigrations applies every pending migration.
func (m *migrator) RunMigrations(ctx context.Context, db *sql.DB) error {
	if err := m.setup(); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, m.dir); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// RollbackMigration reverts the most recently applied migration.
func (m *migrator) RollbackMigration(ctx context.Context, db *sql.DB) error {
	if err := m.setup(); err != nil {
		return err
	}
	if err := gooseDownContext(ctx, db, m.dir); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// MigrationStatus logs the applied/pending state of each migration.
func (m *migrator) MigrationStatus(ctx context.Context, db *sql.DB) error {
	if err := m.setup(); err != nil {
		return err
	}
	if err := gooseStatusContext(ctx, db, m.dir); err != nil {
		return fmt.Errorf("migrate status: %w", err)
	}
	return nil
}

// MigrationVersion returns the latest applied migration version.
func (m *migrator) MigrationVersion(ctx context.Context, db *sql.DB) (int64, error) {
	if err := m.setup(); err != nil {
		return 0, err
	}
	v, err := gooseVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("migrate version: %w", err)
	}
	return v, nil
}

// gooseLogger routes goose output through the project logger.
type gooseLogger struct {
	l logging.Logger
}

func (g *gooseLogger) Printf(format string, v ...any) {
	g.l.Info(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (g *gooseLogger) Fatalf(format string, v ...any) {
	msg := strings.TrimSpace(fmt.Sprintf(format, v...))
	g.l.Error(context.Background(), msg)
	panic(msg)
}
