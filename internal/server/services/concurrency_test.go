package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/alert/internal/common"
	"github.com/dmitrijs2005/alert/internal/dbx"
	"github.com/dmitrijs2005/alert/internal/server/models"
	"github.com/dmitrijs2005/alert/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	racers = 4
	rounds = 20
)

// newFileService opens a file-backed SQLite store the way the server does,
// with a multi-connection pool configuration.
func newFileService(t *testing.T) *UserService {
	t.Helper()
	ctx := context.Background()

	dsn := "file:" + filepath.Join(t.TempDir(), "alert.db")
	db, err := dbx.Open(ctx, dbx.SQLiteDriver, dsn, dbx.PoolConfig{
		MaxOpenConns:   10,
		MaxIdleConns:   5,
		ConnectTimeout: time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rm := repomanager.NewSQLiteRepositoryManager(nopLogger())
	require.NoError(t, rm.RunMigrations(ctx, db))

	return NewUserService(db, rm, nopLogger())
}

// race runs fn from racers goroutines at once and collects their errors.
func race(fn func() error) []error {
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, racers)
	)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = fn()
		}(i)
	}
	close(start)
	wg.Wait()

	return errs
}

// requireOneWinner checks that exactly one call succeeded and every other
// call failed with common.ErrorConflict.
func requireOneWinner(t *testing.T, errs []error) {
	t.Helper()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		require.ErrorIs(t, err, common.ErrorConflict)
	}
	require.Equal(t, 1, wins, "errors: %v", errs)
}

func TestConcurrentCreate_SameUsername(t *testing.T) {
	s := newFileService(t)
	ctx := context.Background()

	for r := 0; r < rounds; r++ {
		username := fmt.Sprintf("c%d", r)

		errs := race(func() error {
			_, err := s.Create(ctx, username, "h")
			return err
		})
		requireOneWinner(t, errs)
	}

	list, err := s.List(ctx, models.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, list, rounds)
}

func TestConcurrentArchive_SameID(t *testing.T) {
	s := newFileService(t)
	ctx := context.Background()

	for r := 0; r < rounds; r++ {
		u, err := s.Create(ctx, fmt.Sprintf("a%d", r), "h")
		require.NoError(t, err)

		errs := race(func() error {
			_, err := s.Archive(ctx, u.ID)
			return err
		})
		requireOneWinner(t, errs)

		got, err := s.FindByID(ctx, u.ID)
		require.NoError(t, err)
		require.True(t, got.IsArchived())
	}
}

func TestConcurrentArchiveAndUpdateCredential(t *testing.T) {
	s := newFileService(t)
	ctx := context.Background()

	for r := 0; r < rounds; r++ {
		u, err := s.Create(ctx, fmt.Sprintf("m%d", r), "h0")
		require.NoError(t, err)

		var mu sync.Mutex
		archives := 0
		errs := race(func() error {
			if _, err := s.Archive(ctx, u.ID); err == nil {
				mu.Lock()
				archives++
				mu.Unlock()
			} else if !errors.Is(err, common.ErrorConflict) {
				return err
			}
			_, err := s.UpdateCredential(ctx, u.ID, "h1")
			return err
		})

		// every update runs after at least one archive attempt of its own
		// goroutine, so all of them must see an archived row
		for _, err := range errs {
			require.ErrorIs(t, err, common.ErrorConflict)
		}
		require.Equal(t, 1, archives)

		got, err := s.FindByID(ctx, u.ID)
		require.NoError(t, err)
		require.True(t, got.IsArchived())
		require.Equal(t, "h0", got.Password)
	}
}
