package ctl

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/alert/internal/common"
	"github.com/dmitrijs2005/alert/internal/logging"
	"github.com/dmitrijs2005/alert/internal/server/models"
	"github.com/dmitrijs2005/alert/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/alert/internal/server/services"
)

// ErrUsage is returned for unknown commands or missing arguments.
var ErrUsage = errors.New("usage")

const usage = `usage: alertctl <command> [args] [flags]

  migrate up|down|status|version
  user create <username>
  user get <id>
  user find <username>
  user check <username>
  user passwd <id>
  user archive <id>
  user list [active|archived|all]
  user verify <username>`

type App struct {
	db     *sql.DB
	rm     repomanager.RepositoryManager
	users  *services.UserService
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(db *sql.DB, rm repomanager.RepositoryManager, logger logging.Logger, in io.Reader, out io.Writer) *App {
	return &App{
		db:     db,
		rm:     rm,
		users:  services.NewUserService(db, rm, logger),
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// Usage writes the command summary to w.
func Usage(w io.Writer) {
	fmt.Fprintln(w, usage)
}

// Run executes the command given by words.
func (a *App) Run(ctx context.Context, words []string) error {
	if len(words) == 0 {
		return ErrUsage
	}

	switch words[0] {
	case "migrate":
		return a.migrate(ctx, words[1:])
	case "user":
		return a.user(ctx, words[1:])
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, words[0])
	}
}

func (a *App) migrate(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: migrate up|down|status|version", ErrUsage)
	}

	switch args[0] {
	case "up":
		if err := a.rm.RunMigrations(ctx, a.db); err != nil {
			return err
		}
	case "down":
		if err := a.rm.RollbackMigration(ctx, a.db); err != nil {
			return err
		}
	case "status":
		return a.rm.MigrationStatus(ctx, a.db)
	case "version":
	default:
		return fmt.Errorf("%w: unknown migrate command %q", ErrUsage, args[0])
	}

	v, err := a.rm.MigrationVersion(ctx, a.db)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "schema version: %d\n", v)
	return nil
}

func (a *App) user(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing user command", ErrUsage)
	}

	cmd, args := args[0], args[1:]

	if cmd == "list" {
		if len(args) > 1 {
			return fmt.Errorf("%w: user list [active|archived|all]", ErrUsage)
		}
		status := ""
		if len(args) == 1 {
			status = args[0]
		}
		return a.list(ctx, status)
	}

	if len(args) != 1 {
		return fmt.Errorf("%w: user %s needs exactly one argument", ErrUsage, cmd)
	}
	arg := args[0]

	switch cmd {
	case "create":
		return a.create(ctx, arg)
	case "get":
		return a.show(a.users.FindByID(ctx, arg))
	case "find":
		return a.show(a.users.FindByUsername(ctx, arg))
	case "check":
		return a.check(ctx, arg)
	case "passwd":
		return a.passwd(ctx, arg)
	case "archive":
		return a.show(a.users.Archive(ctx, arg))
	case "verify":
		return a.verify(ctx, arg)
	default:
		return fmt.Errorf("%w: unknown user command %q", ErrUsage, cmd)
	}
}

func (a *App) create(ctx context.Context, username string) error {
	if _, err := services.NormalizeUsername(username); err != nil {
		return err
	}

	pw, err := GetNewPassword(a.reader, a.out)
	if err != nil {
		return err
	}

	return a.show(a.users.Register(ctx, username, pw))
}

func (a *App) passwd(ctx context.Context, id string) error {
	pw, err := GetNewPassword(a.reader, a.out)
	if err != nil {
		return err
	}

	return a.show(a.users.ResetPassword(ctx, id, pw))
}

func (a *App) check(ctx context.Context, username string) error {
	ok, err := a.users.CheckUsername(ctx, username)
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintf(a.out, "%s is available\n", username)
	} else {
		fmt.Fprintf(a.out, "%s is taken\n", username)
	}
	return nil
}

func (a *App) verify(ctx context.Context, username string) error {
	pw, err := GetPassword(a.reader, "Enter password: ", a.out)
	if err != nil {
		return err
	}

	u, ok, err := a.users.VerifyCredential(ctx, username, pw)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("password does not match")
	}

	fmt.Fprintf(a.out, "password matches (%s)\n", u.Status())
	return nil
}

func (a *App) list(ctx context.Context, status string) error {
	st, err := models.ParseStatus(status)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}

	list, err := a.users.List(ctx, models.ListFilter{Status: st})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tSTATUS\tCREATED\tUPDATED")
	for _, u := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.UserName, u.Status(), formatTime(u.CreatedAt), formatTime(u.UpdatedAt))
	}
	return tw.Flush()
}

func (a *App) show(u *models.User, err error) error {
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "id:          %s\n", u.ID)
	fmt.Fprintf(a.out, "username:    %s\n", u.UserName)
	fmt.Fprintf(a.out, "status:      %s\n", u.Status())
	fmt.Fprintf(a.out, "created_at:  %s\n", formatTime(u.CreatedAt))
	fmt.Fprintf(a.out, "updated_at:  %s\n", formatTime(u.UpdatedAt))
	if u.ArchivedAt != nil {
		fmt.Fprintf(a.out, "archived_at: %s\n", formatTime(*u.ArchivedAt))
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
