package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/alert/internal/logging"
	"github.com/dmitrijs2005/alert/internal/server"
	"github.com/dmitrijs2005/alert/internal/server/config"
)

func main() {

	ctx := context.Background()

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		os.Exit(1)
	}

	app.Run(ctx)

}
