// Package server initializes and runs the alert server: it opens the user
// store, applies migrations, serves the HTTP API and the gRPC health endpoint,
// and shuts everything down on SIGINT/SIGTERM/SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/alert/internal/dbx"
	"github.com/dmitrijs2005/alert/internal/filex"
	"github.com/dmitrijs2005/alert/internal/logging"
	"github.com/dmitrijs2005/alert/internal/server/config"
	"github.com/dmitrijs2005/alert/internal/server/httpapi"
	"github.com/dmitrijs2005/alert/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/alert/internal/server/services"

	gs "github.com/dmitrijs2005/alert/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	userService *services.UserService
}

// OpenDatabase connects to the configured database and returns it together
// with the repository manager for its dialect.
func OpenDatabase(ctx context.Context, c *config.Config, logger logging.Logger) (*sql.DB, repomanager.RepositoryManager, error) {
	rm, err := repomanager.NewRepositoryManager(c.DatabaseDriver, logger)
	if err != nil {
		return nil, nil, err
	}

	if c.DatabaseDriver == config.DriverSQLite {
		if err := filex.EnsureSQLiteDir(c.DatabaseDSN); err != nil {
			return nil, nil, err
		}
	}

	db, err := dbx.Open(ctx, c.DatabaseDriver, c.DatabaseDSN, dbx.PoolConfig{
		MaxOpenConns:    c.DBMaxOpenConns,
		MaxIdleConns:    c.DBMaxIdleConns,
		ConnMaxLifetime: c.DBConnMaxLifetime,
		ConnectTimeout:  c.DBConnectTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}

	return db, rm, nil
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, rm, err := OpenDatabase(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	if c.MigrateOnStart {
		if err := rm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	us := services.NewUserService(db, rm, logger)

	return &App{config: c, logger: logger, db: db, userService: us}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.GRPCAddress, app.logger, app.db, app.config.HealthInterval)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.HTTPAddress, app.logger, app.userService, app.db, app.config.ShutdownTimeout)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a signal arrives or a server fails,
// then closes the database.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing database", "error", err)
	}

	app.logger.Info(ctx, "App stopped")
}
