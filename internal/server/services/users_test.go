package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/alert/internal/common"
	"github.com/dmitrijs2005/alert/internal/cryptox"
	"github.com/dmitrijs2005/alert/internal/dbx"
	"github.com/dmitrijs2005/alert/internal/logging"
	"github.com/dmitrijs2005/alert/internal/server/models"
	"github.com/dmitrijs2005/alert/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/alert/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

var cheapParams = cryptox.Params{Memory: 1024, Time: 1, Threads: 1, SaltLen: 16, KeyLen: 32}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func nopLogger() logging.Logger {
	return logging.New(io.Discard, "error", "text")
}

func newSQLiteService(t *testing.T) (*UserService, *fakeClock) {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	rm := repomanager.NewSQLiteRepositoryManager(nopLogger())
	require.NoError(t, rm.RunMigrations(context.Background(), db))

	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	seq := 0

	s := NewUserService(db, rm, nopLogger())
	s.now = clock.Now
	s.newID = func() string {
		seq++
		return fmt.Sprintf("id-%03d", seq)
	}
	s.hash = func(p []byte) (string, error) { return cryptox.HashPasswordWithParams(p, cheapParams) }

	return s, clock
}

func TestCreate_SetsIdentityAndTimestamps(t *testing.T) {
	s, clock := newSQLiteService(t)
	ctx := context.Background()

	u, err := s.Create(ctx, "alice", "h1")
	require.NoError(t, err)

	assert.Equal(t, "id-001", u.ID)
	assert.Equal(t, "alice", u.UserName)
	assert.Equal(t, "h1", u.Password)
	assert.True(t, u.CreatedAt.Equal(clock.Now()))
	assert.True(t, u.UpdatedAt.Equal(u.CreatedAt))
	assert.Nil(t, u.ArchivedAt)
	assert.Equal(t, models.StatusActive, u.Status())

	got, err := s.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u, got)

	got, err = s.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u, got)
}

func TestCreate_DuplicateUsername(t *testing.T) {
	s, _ := newSQLiteService(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "alice", "h1")
	require.NoError(t, err)

	_, err = s.Create(ctx, "alice", "h2")
	require.ErrorIs(t, err, common.ErrorConflict)

	list, err := s.List(ctx, models.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestFind_NotFound(t *testing.T) {
	s, _ := newSQLiteService(t)
	ctx := context.Background()

	_, err := s.FindByID(ctx, "missing")
	require.ErrorIs(t, err, common.ErrorNotFound)

	_, err = s.FindByUsername(ctx, "missing")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUpdateCredential(t *testing.T) {
	s, clock := newSQLiteService(t)
	ctx := context.Background()

	u, err := s.Create(ctx, "alice", "h1")
	require.NoError(t, err)

	clock.Advance(time.Minute)
	updated, err := s.UpdateCredential(ctx, u.ID, "h2")
	require.NoError(t, err)
	assert.Equal(t, "h2", updated.Password)
	assert.True(t, updated.UpdatedAt.Equal(clock.Now()))
	assert.True(t, updated.CreatedAt.Equal(u.CreatedAt))

	got, err := s.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "h2", got.Password)
}

func TestUpdateCredential_ClockNotAdvanced(t *testing.T) {
	s, _ := newSQLiteService(t)
	ctx := context.Background()

	u, err := s.Create(ctx, "alice", "h1")
	require.NoError(t, err)

	first, err := s.UpdateCredential(ctx, u.ID, "h2")
	require.NoError(t, err)
	assert.True(t, first.UpdatedAt.After(u.UpdatedAt))

	second, err := s.UpdateCredential(ctx, u.ID, "h3")
	require.NoError(t, err)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
}

func TestUpdateCredential_NotFound(t *testing.T) {
	s, _ := newSQLiteService(t)

	_, err := s.UpdateCredential(context.Background(), "missing", "h")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestArchive(t *testing.T) {
	s, clock := newSQLiteService(t)
	ctx := context.Background()

	u, err := s.Create(ctx, "alice", "h1")
	require.NoError(t, err)

	clock.Advance(time.Hour)
	archived, err := s.Archive(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, archived.ArchivedAt)
	assert.True(t, archived.ArchivedAt.Equal(clock.Now()))
	assert.True(t, archived.UpdatedAt.Equal(*archived.ArchivedAt))
	assert.Equal(t, models.StatusArchived, archived.Status())

	// archived records stay readable
	got, err := s.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, archived, got)
}

func TestArchive_Terminal(t *testing.T) {
	s, clock := newSQLiteService(t)
	ctx := context.Background()

	u, err := s.Create(ctx, "alice", "h1")
	require.NoError(t, err)
	archived, err := s.Archive(ctx, u.ID)
	require.NoError(t, err)

	clock.Advance(time.Hour)

	_, err = s.Archive(ctx, u.ID)
	require.ErrorIs(t, err, common.ErrorConflict)

	_, err = s.UpdateCredential(ctx, u.ID, "h2")
	require.ErrorIs(t, err, common.ErrorConflict)

	got, err := s.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, archived, got)

	// the username is not released by archiving
	_, err = s.Create(ctx, "alice", "h3")
	require.ErrorIs(t, err, common.ErrorConflict)
}

func TestArchive_NotFound(t *testing.T) {
	s, _ := newSQLiteService(t)

	_, err := s.Archive(context.Background(), "missing")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestList(t *testing.T) {
	s, clock := newSQLiteService(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		_, err := s.Create(ctx, name, "h")
		require.NoError(t, err)
		clock.Advance(time.Second)
	}
	_, err := s.Archive(ctx, "id-002")
	require.NoError(t, err)

	active, err := s.List(ctx, models.ListFilter{Status: models.StatusActive})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, names(active))

	archived, err := s.List(ctx, models.ListFilter{Status: models.StatusArchived})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, names(archived))

	page, err := s.List(ctx, models.ListFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, names(page))

	_, err = s.List(ctx, models.ListFilter{Limit: -1})
	require.ErrorIs(t, err, common.ErrorValidation)
}

func names(list []*models.User) []string {
	out := make([]string, 0, len(list))
	for _, u := range list {
		out = append(out, u.UserName)
	}
	return out
}

func TestRegister(t *testing.T) {
	s, _ := newSQLiteService(t)
	ctx := context.Background()

	password := []byte("correct horse")
	u, err := s.Register(ctx, "  alice  ", password)
	require.NoError(t, err)

	assert.Equal(t, "alice", u.UserName)
	assert.NotContains(t, u.Password, "correct horse")
	assert.Equal(t, make([]byte, len(password)), password, "plaintext must be wiped")

	got, ok, err := s.VerifyCredential(ctx, "alice", []byte("correct horse"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, u.ID, got.ID)

	_, ok, err = s.VerifyCredential(ctx, "alice", []byte("wrong horse"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegister_Validation(t *testing.T) {
	s, _ := newSQLiteService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"empty username", "   ", "password1"},
		{"inner whitespace", "al ice", "password1"},
		{"long username", strings.Repeat("x", MaxUsernameLength+1), "password1"},
		{"short password", "alice", "short"},
		{"long password", "alice", strings.Repeat("p", MaxPasswordLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Register(ctx, tt.username, []byte(tt.password))
			require.ErrorIs(t, err, common.ErrorValidation)
		})
	}

	list, err := s.List(ctx, models.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRegister_HashError(t *testing.T) {
	s, _ := newSQLiteService(t)
	s.hash = func([]byte) (string, error) { return "", errors.New("no entropy") }

	_, err := s.Register(context.Background(), "alice", []byte("password1"))
	require.ErrorIs(t, err, common.ErrorInternal)
}

func TestCheckUsername(t *testing.T) {
	s, _ := newSQLiteService(t)
	ctx := context.Background()

	ok, err := s.CheckUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	u, err := s.Register(ctx, "alice", []byte("password1"))
	require.NoError(t, err)

	ok, err = s.CheckUsername(ctx, " alice ")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Archive(ctx, u.ID)
	require.NoError(t, err)

	ok, err = s.CheckUsername(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.CheckUsername(ctx, "")
	require.ErrorIs(t, err, common.ErrorValidation)
}

func TestResetPassword(t *testing.T) {
	s, _ := newSQLiteService(t)
	ctx := context.Background()

	u, err := s.Register(ctx, "alice", []byte("password1"))
	require.NoError(t, err)

	_, err = s.ResetPassword(ctx, u.ID, []byte("short"))
	require.ErrorIs(t, err, common.ErrorValidation)

	updated, err := s.ResetPassword(ctx, u.ID, []byte("password2"))
	require.NoError(t, err)
	assert.NotEqual(t, u.Password, updated.Password)

	_, ok, err := s.VerifyCredential(ctx, "alice", []byte("password2"))
	require.NoError(t, err)
	assert.True(t, ok)
}

// unavailableRepo fails every call the way a repository does when the
// connection is gone.
type unavailableRepo struct{}

var errUnavailable = fmt.Errorf("%w: connection refused", common.ErrorStorageUnavailable)

func (unavailableRepo) Create(context.Context, *models.User) (*models.User, error) {
	return nil, errUnavailable
}
func (unavailableRepo) FindByID(context.Context, string) (*models.User, error) {
	return nil, errUnavailable
}
func (unavailableRepo) FindByUsername(context.Context, string) (*models.User, error) {
	return nil, errUnavailable
}
func (unavailableRepo) FindByIDForUpdate(context.Context, string) (*models.User, error) {
	return nil, errUnavailable
}
func (unavailableRepo) Update(context.Context, *models.User) error { return errUnavailable }
func (unavailableRepo) List(context.Context, models.ListFilter) ([]*models.User, error) {
	return nil, errUnavailable
}

type fakeManager struct {
	repomanager.RepositoryManager
	repo users.Repository
}

func (m *fakeManager) Users(dbx.DBTX) users.Repository { return m.repo }

func TestStorageUnavailable_Propagates(t *testing.T) {
	s, _ := newSQLiteService(t)
	s.repomanager = &fakeManager{repo: unavailableRepo{}}
	ctx := context.Background()

	_, err := s.Create(ctx, "alice", "h")
	require.ErrorIs(t, err, common.ErrorStorageUnavailable)

	_, err = s.FindByID(ctx, "id")
	require.ErrorIs(t, err, common.ErrorStorageUnavailable)

	_, err = s.FindByUsername(ctx, "alice")
	require.ErrorIs(t, err, common.ErrorStorageUnavailable)

	_, err = s.UpdateCredential(ctx, "id", "h")
	require.ErrorIs(t, err, common.ErrorStorageUnavailable)

	_, err = s.Archive(ctx, "id")
	require.ErrorIs(t, err, common.ErrorStorageUnavailable)

	_, err = s.List(ctx, models.ListFilter{})
	require.ErrorIs(t, err, common.ErrorStorageUnavailable)

	_, err = s.CheckUsername(ctx, "alice")
	require.ErrorIs(t, err, common.ErrorStorageUnavailable)
}
