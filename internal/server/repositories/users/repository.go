// Package users is the storage boundary for user accounts. Repositories are
// bound to a dbx.DBTX so the same code runs on a plain connection or inside
// a transaction opened by the caller.
package users

import (
	"context"

	"github.com/dmitrijs2005/alert/internal/server/models"
)

type Repository interface {
	// Create inserts user as given (ID and timestamps included). A taken
	// id or username yields common.ErrorConflict.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// FindByID and FindByUsername return active and archived records alike,
	// or common.ErrorNotFound.
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// FindByIDForUpdate reads the row and locks it until the surrounding
	// transaction ends.
	FindByIDForUpdate(ctx context.Context, id string) (*models.User, error)

	// Update writes the mutable columns (user_password, updated_at,
	// archived_at) of an existing row.
	Update(ctx context.Context, user *models.User) error

	List(ctx context.Context, filter models.ListFilter) ([]*models.User, error)
}
