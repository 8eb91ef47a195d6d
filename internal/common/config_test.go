package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "atlas.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Partner.MaxConcurrency)
	assert.Equal(t, 1000, cfg.Ingest.ChunkSize)
	assert.InDelta(t, 0.8, cfg.Ingest.HighConfidenceThreshold, 0.0001)
}

func TestFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 9090

[partner]
page_size = 100
request_delay = "500ms"

[ingest]
high_confidence_threshold = 0.9
`)

	cfg, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host, "untouched keys keep defaults")
	assert.Equal(t, 100, cfg.Partner.PageSize)
	assert.Equal(t, 500*time.Millisecond, cfg.Partner.RequestDelay)
	assert.InDelta(t, 0.9, cfg.Ingest.HighConfidenceThreshold, 0.0001)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 9090
`)

	t.Setenv("ATLAS_SERVER_PORT", "7070")
	t.Setenv("ATLAS_OAUTH_CLIENT_ID", "env-client")

	cfg, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "env-client", cfg.OAuth.ClientID)
}

func TestFlagOverridesEverything(t *testing.T) {
	cfg := NewDefaultConfig()
	ApplyFlagOverrides(cfg, 6060, "0.0.0.0")

	assert.Equal(t, 6060, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestValidationRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"zero chunk size", func(c *Config) { c.Ingest.ChunkSize = 0 }},
		{"threshold above one", func(c *Config) { c.Ingest.HighConfidenceThreshold = 1.5 }},
		{"page size beyond cap", func(c *Config) { c.Partner.PageSize = 500 }},
		{"enabled schedule without expression", func(c *Config) {
			c.Ingest.ScheduleEnabled = true
			c.Ingest.Schedule = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("0 3 * * *"))
	assert.NoError(t, ValidateSchedule("*/15 * * * *"))
	assert.Error(t, ValidateSchedule("* * * * *"), "every minute is below the floor")
	assert.Error(t, ValidateSchedule("*/2 * * * *"), "two minutes is below the floor")
	assert.Error(t, ValidateSchedule("not a cron"))
}
