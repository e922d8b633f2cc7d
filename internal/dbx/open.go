package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/alert/internal/common"
	"github.com/sethvargo/go-retry"
)

// PoolConfig holds connection pool limits and the startup connect budget.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// ConnectTimeout bounds how long Open keeps retrying the initial ping.
	// Zero means a single attempt.
	ConnectTimeout time.Duration
}

// pingBackoff is the first delay between ping attempts; it doubles up to
// maxPingBackoff.
var (
	pingBackoff    = 100 * time.Millisecond
	maxPingBackoff = 2 * time.Second
)

// Open opens a database handle for driverName, applies the pool limits and
// pings it until it answers or ConnectTimeout elapses. A failed ping is
// reported as common.ErrorStorageUnavailable.
//
// For SQLite the DSN gets immediate transaction locking and a busy timeout,
// and the pool is pinned to a single connection.
func Open(ctx context.Context, driverName, dsn string, pool PoolConfig) (*sql.DB, error) {
	if driverName == SQLiteDriver {
		dsn = SQLiteDSN(dsn)
		pool = sqlitePool(pool)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}

	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}

	if err := ping(ctx, db, pool.ConnectTimeout); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", common.ErrorStorageUnavailable, err)
	}

	return db, nil
}

func ping(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	if timeout <= 0 {
		return db.PingContext(ctx)
	}

	b := retry.NewExponential(pingBackoff)
	b = retry.WithCappedDuration(maxPingBackoff, b)
	b = retry.WithMaxDuration(timeout, b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
