package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/alert/internal/ctl"
	"github.com/dmitrijs2005/alert/internal/logging"
	"github.com/dmitrijs2005/alert/internal/server"
	"github.com/dmitrijs2005/alert/internal/server/config"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:]))
}

func run(ctx context.Context, args []string) int {
	words, flags := ctl.SplitArgs(args)
	if len(words) == 0 {
		ctl.Usage(os.Stderr)
		return 2
	}

	cfg, err := config.LoadConfig(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, "text")

	db, rm, err := server.OpenDatabase(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer db.Close()

	app := ctl.NewApp(db, rm, logger, os.Stdin, os.Stdout)
	if err := app.Run(ctx, words); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, ctl.ErrUsage) {
			ctl.Usage(os.Stderr)
			return 2
		}
		return 1
	}

	return 0
}
