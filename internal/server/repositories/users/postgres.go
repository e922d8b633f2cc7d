package users

import (
	"context"
	"strconv"

	"github.com/dmitrijs2005/alert/internal/dbx"
	"github.com/dmitrijs2005/alert/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (id, username, user_password, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING ` + userColumns

	u, err := scanUser(r.db.QueryRowContext(ctx, query,
		user.ID, user.UserName, user.Password, user.CreatedAt, user.UpdatedAt))
	if err != nil {
		return nil, mapError(err)
	}

	return u, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}

	return u, nil
}

func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	u, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		return nil, mapError(err)
	}

	return u, nil
}

func (r *PostgresRepository) FindByIDForUpdate(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`

	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}

	return u, nil
}

func (r *PostgresRepository) Update(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users SET user_password = $2, updated_at = $3, archived_at = $4
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, user.ID, user.Password, user.UpdatedAt, user.ArchivedAt)
	if err != nil {
		return mapError(err)
	}

	return checkAffected(res)
}

func (r *PostgresRepository) List(ctx context.Context, filter models.ListFilter) ([]*models.User, error) {
	query, args := listQuery(filter, func(n int) string { return "$" + strconv.Itoa(n) }, false)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}

	return scanUsers(rows)
}

var _ Repository = (*PostgresRepository)(nil)
