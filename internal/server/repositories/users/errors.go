package users

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/alert/internal/common"
	"github.com/dmitrijs2005/alert/internal/dbx"
	"github.com/dmitrijs2005/alert/internal/server/models"
)

// mapError turns driver errors into the repository error taxonomy.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return common.ErrorNotFound
	case dbx.IsUniqueViolation(err):
		return fmt.Errorf("%w: %w", common.ErrorConflict, err)
	case dbx.IsUnavailable(err):
		return fmt.Errorf("%w: %w", common.ErrorStorageUnavailable, err)
	default:
		return fmt.Errorf("db error: %w", err)
	}
}

type scanner interface {
	Scan(dest ...any) error
}

// userColumns is the select list matching scanUser.
const userColumns = `id, username, user_password, created_at, updated_at, archived_at`

func scanUser(row scanner) (*models.User, error) {
	u := &models.User{}
	var archivedAt sql.NullTime

	if err := row.Scan(&u.ID, &u.UserName, &u.Password, &u.CreatedAt, &u.UpdatedAt, &archivedAt); err != nil {
		return nil, err
	}

	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	if archivedAt.Valid {
		at := archivedAt.Time.UTC()
		u.ArchivedAt = &at
	}

	return u, nil
}

func scanUsers(rows *sql.Rows) ([]*models.User, error) {
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, mapError(err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return result, nil
}

// listQuery builds the List statement. placeholder renders the n-th bind
// parameter for the dialect; offsetNeedsLimit is set for SQLite, which only
// accepts OFFSET after a LIMIT clause.
func listQuery(filter models.ListFilter, placeholder func(n int) string, offsetNeedsLimit bool) (string, []any) {
	var b strings.Builder
	b.WriteString(`SELECT ` + userColumns + ` FROM users`)

	switch filter.Status {
	case models.StatusActive:
		b.WriteString(` WHERE archived_at IS NULL`)
	case models.StatusArchived:
		b.WriteString(` WHERE archived_at IS NOT NULL`)
	}

	b.WriteString(` ORDER BY created_at, id`)

	var args []any
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		b.WriteString(` LIMIT ` + placeholder(len(args)))
	}
	if filter.Offset > 0 {
		if filter.Limit <= 0 && offsetNeedsLimit {
			b.WriteString(` LIMIT -1`)
		}
		args = append(args, filter.Offset)
		b.WriteString(` OFFSET ` + placeholder(len(args)))
	}

	return b.String(), args
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
