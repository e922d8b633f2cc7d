package users

import (
	"context"

	"github.com/dmitrijs2005/alert/internal/dbx"
	"github.com/dmitrijs2005/alert/internal/server/models"
)

// SQLiteRepository serves local development and single-node deployments.
// SQLite has no row locks; FindByIDForUpdate relies on the transaction
// holding the database write lock (open the DB with _txlock=immediate).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, user_password, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, user.ID, user.UserName, user.Password, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}

	return r.FindByID(ctx, user.ID)
}

func (r *SQLiteRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return u, nil
}

func (r *SQLiteRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if err != nil {
		return nil, mapError(err)
	}
	return u, nil
}

func (r *SQLiteRepository) FindByIDForUpdate(ctx context.Context, id string) (*models.User, error) {
	return r.FindByID(ctx, id)
}

func (r *SQLiteRepository) Update(ctx context.Context, user *models.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET user_password = ?, updated_at = ?, archived_at = ?
		WHERE id = ?
	`, user.Password, user.UpdatedAt, user.ArchivedAt, user.ID)
	if err != nil {
		return mapError(err)
	}
	return checkAffected(res)
}

func (r *SQLiteRepository) List(ctx context.Context, filter models.ListFilter) ([]*models.User, error) {
	query, args := listQuery(filter, func(int) string { return "?" }, true)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	return scanUsers(rows)
}

var _ Repository = (*SQLiteRepository)(nil)
