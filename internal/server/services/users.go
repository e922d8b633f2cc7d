// Package services contains server-side business logic. UserService owns the
// user account lifecycle: registration, credential replacement and the
// terminal Active -> Archived transition.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/alert/internal/common"
	"github.com/dmitrijs2005/alert/internal/cryptox"
	"github.com/dmitrijs2005/alert/internal/dbx"
	"github.com/dmitrijs2005/alert/internal/logging"
	"github.com/dmitrijs2005/alert/internal/server/models"
	"github.com/dmitrijs2005/alert/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	MaxUsernameLength = 255
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger

	now   func() time.Time
	newID func() string
	hash  func(password []byte) (string, error)
}

// NewUserService constructs a UserService over db using the repositories
// vended by m.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "users"),
		now:         time.Now,
		newID:       uuid.NewString,
		hash:        cryptox.HashPassword,
	}
}

// Create stores a new active account holding credentialHash. The store
// assigns the id and both timestamps. A taken username yields
// common.ErrorConflict.
func (s *UserService) Create(ctx context.Context, username, credentialHash string) (*models.User, error) {
	now := models.Timestamp(s.now())
	user := &models.User{
		ID:        s.newID(),
		UserName:  username,
		Password:  credentialHash,
		CreatedAt: now,
		UpdatedAt: now,
	}

	u, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info(ctx, "user created", "user_id", u.ID)
	return u, nil
}

func (s *UserService) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", id, err)
	}
	return u, nil
}

func (s *UserService) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return u, nil
}

// UpdateCredential replaces the stored hash of an active account.
// Archived accounts are immutable and yield common.ErrorConflict.
func (s *UserService) UpdateCredential(ctx context.Context, id, credentialHash string) (*models.User, error) {
	u, err := s.mutate(ctx, id, func(u *models.User, now time.Time) {
		u.Password = credentialHash
		u.UpdatedAt = models.NextUpdatedAt(u.UpdatedAt, now)
	})
	if err != nil {
		return nil, fmt.Errorf("update credential of %s: %w", id, err)
	}

	s.logger.Info(ctx, "credential updated", "user_id", id)
	return u, nil
}

// Archive soft-deletes an active account. Archiving twice yields
// common.ErrorConflict and leaves archived_at unchanged.
func (s *UserService) Archive(ctx context.Context, id string) (*models.User, error) {
	u, err := s.mutate(ctx, id, func(u *models.User, now time.Time) {
		at := models.NextUpdatedAt(u.UpdatedAt, now)
		u.UpdatedAt = at
		u.ArchivedAt = &at
	})
	if err != nil {
		return nil, fmt.Errorf("archive user %s: %w", id, err)
	}

	s.logger.Info(ctx, "user archived", "user_id", id)
	return u, nil
}

// mutate locks the row, rejects archived accounts, applies fn and writes the
// result back, all in one transaction.
func (s *UserService) mutate(ctx context.Context, id string, fn func(u *models.User, now time.Time)) (*models.User, error) {
	var out *models.User

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		u, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if u.IsArchived() {
			return fmt.Errorf("%w: account is archived", common.ErrorConflict)
		}

		fn(u, s.now())

		if err := repo.Update(ctx, u); err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// List returns accounts in creation order.
func (s *UserService) List(ctx context.Context, filter models.ListFilter) ([]*models.User, error) {
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must not be negative", common.ErrorValidation)
	}

	list, err := s.repomanager.Users(s.db).List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return list, nil
}

// Register validates the credentials, hashes the password and creates the
// account. The password buffer is zeroed before returning.
func (s *UserService) Register(ctx context.Context, username string, password []byte) (*models.User, error) {
	defer common.WipeByteArray(password)

	username, err := NormalizeUsername(username)
	if err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", common.ErrorInternal, err)
	}

	return s.Create(ctx, username, hash)
}

// CheckUsername reports whether username is free. Archived accounts keep
// their username.
func (s *UserService) CheckUsername(ctx context.Context, username string) (bool, error) {
	username, err := NormalizeUsername(username)
	if err != nil {
		return false, err
	}

	_, err = s.repomanager.Users(s.db).FindByUsername(ctx, username)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, common.ErrorNotFound):
		return true, nil
	default:
		return false, fmt.Errorf("check username: %w", err)
	}
}

// ResetPassword hashes password and stores it as the new credential of id.
func (s *UserService) ResetPassword(ctx context.Context, id string, password []byte) (*models.User, error) {
	defer common.WipeByteArray(password)

	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", common.ErrorInternal, err)
	}

	return s.UpdateCredential(ctx, id, hash)
}

// VerifyCredential checks password against the hash stored for username.
// No session is issued; the result is informational.
func (s *UserService) VerifyCredential(ctx context.Context, username string, password []byte) (*models.User, bool, error) {
	defer common.WipeByteArray(password)

	u, err := s.FindByUsername(ctx, username)
	if err != nil {
		return nil, false, err
	}

	ok, err := cryptox.VerifyPassword(u.Password, password)
	if err != nil {
		return u, false, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return u, ok, nil
}

// NormalizeUsername trims surrounding whitespace and checks the result is
// 1..MaxUsernameLength characters without inner whitespace.
func NormalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(username)

	switch n := utf8.RuneCountInString(username); {
	case n == 0:
		return "", fmt.Errorf("%w: username is required", common.ErrorValidation)
	case n > MaxUsernameLength:
		return "", fmt.Errorf("%w: username is longer than %d characters", common.ErrorValidation, MaxUsernameLength)
	}
	if strings.IndexFunc(username, unicode.IsSpace) >= 0 {
		return "", fmt.Errorf("%w: username must not contain whitespace", common.ErrorValidation)
	}

	return username, nil
}

func ValidatePassword(password []byte) error {
	if len(password) < MinPasswordLength || len(password) > MaxPasswordLength {
		return fmt.Errorf("%w: password must be %d to %d bytes", common.ErrorValidation, MinPasswordLength, MaxPasswordLength)
	}
	return nil
}
