package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, "/Importer/", cfg.Importer.MountPath)
	assert.Equal(t, []string{"cn-imaris", "cn-lattice", "cn-airyscan"}, cfg.Importer.Workstations)
	assert.Equal(t, "omero", cfg.Importer.Binary)
	assert.True(t, cfg.Importer.InPlace)
	assert.Equal(t, 10, cfg.Importer.DatasetDepth)
	assert.Equal(t, "_", cfg.Importer.DatasetSeparator)
	assert.Equal(t, 2, cfg.Importer.ParallelFileset)
	assert.Equal(t, 2, cfg.Importer.ParallelUpload)
	assert.True(t, cfg.Staging.Enabled)
	assert.Equal(t, "/storage/OMERO_inplace/users/", cfg.Staging.DataPath)
	assert.False(t, cfg.Staging.Fanout)
	assert.Equal(t, 4, cfg.Staging.Workers)
	assert.Equal(t, 60*time.Second, cfg.Session.KeepAliveInterval)
	assert.Equal(t, slog.LevelInfo, cfg.Logging.Level)
	assert.False(t, cfg.Schedule.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestNewConfig_FromEnvironment(t *testing.T) {
	t.Setenv("MOUNT_PATH", "/mnt/import")
	t.Setenv("WORKSTATIONS", " ws-a , ws-b,, ")
	t.Setenv("DATASET_SEPARATOR", "__")
	t.Setenv("COPY_SOURCES", "false")
	t.Setenv("KEEPALIVE_INTERVAL", "0s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("IMPORT_SCHEDULE_DESTINATION_ID", "17")
	t.Setenv("IMPORT_SCHEDULE_OWNER_ID", "42")

	cfg := NewConfig()

	assert.Equal(t, "/mnt/import", cfg.Importer.MountPath)
	assert.Equal(t, []string{"ws-a", "ws-b"}, cfg.Importer.Workstations)
	assert.Equal(t, "__", cfg.Importer.DatasetSeparator)
	assert.False(t, cfg.Staging.Enabled)
	assert.Zero(t, cfg.Session.KeepAliveInterval)
	assert.Equal(t, slog.LevelDebug, cfg.Logging.Level)
	assert.Equal(t, uint(17), cfg.Schedule.DestinationID)
	assert.Equal(t, int64(42), cfg.Schedule.OwnerID)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty mount", func(c *Config) { c.Importer.MountPath = " " }},
		{"no workstations", func(c *Config) { c.Importer.Workstations = nil }},
		{"zero depth", func(c *Config) { c.Importer.DatasetDepth = 0 }},
		{"empty separator", func(c *Config) { c.Importer.DatasetSeparator = "" }},
		{"no staging path", func(c *Config) { c.Staging.DataPath = "" }},
		{"zero workers", func(c *Config) { c.Staging.Workers = 0 }},
		{"zero parallelism", func(c *Config) { c.Importer.ParallelUpload = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_Validate_StagingPathOptionalWhenNotCopying(t *testing.T) {
	cfg := NewConfig()
	cfg.Staging.Enabled = false
	cfg.Staging.DataPath = ""
	assert.NoError(t, cfg.Validate())
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Info("run finished", "imported", 3)
	logger.Debug("hidden")

	assert.Contains(t, stderr.String(), "run finished")
	assert.Contains(t, file.String(), `"msg":"run finished"`)
	assert.NotContains(t, stderr.String(), "hidden")
}

func TestSetupLogger_WritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	logger, cleanup := SetupLogger(path, slog.LevelInfo)

	logger.Info("hello")
	require.NoError(t, cleanup())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"hello"`)
}
