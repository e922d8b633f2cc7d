package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/alert/internal/flagx"
	"github.com/dmitrijs2005/alert/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations accept
// "5s"-style strings or integer nanoseconds. Absent fields keep the value
// already in Config.
type JsonConfig struct {
	HTTPAddress       string         `json:"http_address"`
	GRPCAddress       string         `json:"grpc_address"`
	DatabaseDriver    string         `json:"database_driver"`
	DatabaseDSN       string         `json:"database_dsn"`
	LogLevel          string         `json:"log_level"`
	LogFormat         string         `json:"log_format"`
	MigrateOnStart    *bool          `json:"migrate_on_start"`
	ShutdownTimeout   timex.Duration `json:"shutdown_timeout"`
	HealthInterval    timex.Duration `json:"health_interval"`
	DBMaxOpenConns    int            `json:"db_max_open_conns"`
	DBMaxIdleConns    int            `json:"db_max_idle_conns"`
	DBConnMaxLifetime timex.Duration `json:"db_conn_max_lifetime"`
	DBConnectTimeout  timex.Duration `json:"db_connect_timeout"`
}

// parseJson loads the file named by -c/-config in args into config.
// Without the flag nothing is loaded.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&config.HTTPAddress, c.HTTPAddress)
	setString(&config.GRPCAddress, c.GRPCAddress)
	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
	if c.MigrateOnStart != nil {
		config.MigrateOnStart = *c.MigrateOnStart
	}
	if c.ShutdownTimeout.Duration > 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	if c.HealthInterval.Duration > 0 {
		config.HealthInterval = c.HealthInterval.Duration
	}
	if c.DBMaxOpenConns > 0 {
		config.DBMaxOpenConns = c.DBMaxOpenConns
	}
	if c.DBMaxIdleConns > 0 {
		config.DBMaxIdleConns = c.DBMaxIdleConns
	}
	if c.DBConnMaxLifetime.Duration > 0 {
		config.DBConnMaxLifetime = c.DBConnMaxLifetime.Duration
	}
	if c.DBConnectTimeout.Duration > 0 {
		config.DBConnectTimeout = c.DBConnectTimeout.Duration
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
