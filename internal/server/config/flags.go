package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/alert/internal/flagx"
)

// serverFlags lists the flags parseFlags owns; everything else in args
// belongs to other components.
var serverFlags = []string{"-a", "-g", "-d", "-r", "-l", "-f", "-m", "-t"}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     HTTP bind address (e.g. ":8080")
//	-g string     gRPC health bind address (e.g. ":50051")
//	-d string     database DSN
//	-r string     database driver: pgx or sqlite
//	-l string     log level: debug, info, warn, error
//	-f string     log format: json or text
//	-m bool       run migrations on start ("-m false" and "-m=false" disable)
//	-t duration   graceful shutdown timeout (e.g. "10s")
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddress, "a", config.HTTPAddress, "HTTP address and port")
	fs.StringVar(&config.GRPCAddress, "g", config.GRPCAddress, "gRPC health address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.DatabaseDriver, "r", config.DatabaseDriver, "database driver (pgx|sqlite)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format (json|text)")
	fs.BoolVar(&config.MigrateOnStart, "m", config.MigrateOnStart, "run migrations on start")
	fs.DurationVar(&config.ShutdownTimeout, "t", config.ShutdownTimeout, "graceful shutdown timeout")

	return fs.Parse(flagx.FilterArgs(args, serverFlags, "-m"))
}
