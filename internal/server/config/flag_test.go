package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected  *Config
		name      string
		args      []string
		expectErr bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:9090", "-g", "127.0.0.1:9091", "-d", "db", "-r", "sqlite",
				"-l", "debug", "-f", "text", "-m=false", "-t", "5s",
			},
			expected: &Config{
				HTTPAddress:     "127.0.0.1:9090",
				GRPCAddress:     "127.0.0.1:9091",
				DatabaseDSN:     "db",
				DatabaseDriver:  "sqlite",
				LogLevel:        "debug",
				LogFormat:       "text",
				MigrateOnStart:  false,
				ShutdownTimeout: 5 * time.Second,
			},
		},
		{
			name:     "foreign flags are ignored",
			args:     []string{"-c", "cfg.json", "-x", "1", "-d", "dsn"},
			expected: &Config{DatabaseDSN: "dsn"},
		},
		{
			name:      "bad duration",
			args:      []string{"-t", "forever"},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}
			err := parseFlags(config, tt.args)
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}

func TestParseFlags_MigrateSeparateValue(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"separate false", []string{"-m", "false", "-a", ":9090", "-t", "3s"}, false},
		{"equals false", []string{"-m=false", "-a", ":9090", "-t", "3s"}, false},
		{"bare", []string{"-m", "-a", ":9090", "-t", "3s"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{MigrateOnStart: !tt.want}
			require.NoError(t, parseFlags(config, tt.args))

			assert.Equal(t, tt.want, config.MigrateOnStart)
			assert.Equal(t, ":9090", config.HTTPAddress)
			assert.Equal(t, 3*time.Second, config.ShutdownTimeout)
		})
	}
}
