package entrypoint

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/remote-import/internal/config"
	"github.com/mrlokans/remote-import/internal/entities"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.NewConfig()
	cfg.Database.Path = filepath.Join(dir, "catalogue.db")
	cfg.Database.AttachmentDir = filepath.Join(dir, "attachments")
	cfg.Audit.Dir = filepath.Join(dir, "audit")
	cfg.Importer.MountPath = filepath.Join(dir, "mount")
	cfg.Importer.Workstations = []string{"ws-a"}
	cfg.Staging.DataPath = filepath.Join(dir, "staging")
	cfg.Session.KeepAliveInterval = 0
	return cfg
}

func TestNewApp_RecordsNoDataRun(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Importer.MountPath, "ws-a"), 0o755))

	app, err := NewApp(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer app.Close()

	project, err := app.Containers.CreateProject(ctx, "P")
	require.NoError(t, err)

	report, err := app.Orchestrator.Run(ctx, entities.RunParams{
		Workstation:     "ws-a",
		DestinationKind: entities.ContainerKindProject,
		DestinationID:   project.ID,
		Owner:           entities.Owner{Name: "alice", ID: 7},
	})
	require.NoError(t, err)
	assert.Equal(t, entities.RunStatusNoData, report.Status)
	assert.Equal(t, "No data available on ws-a for user alice", report.Message)

	record, err := app.Runs.GetByRunID(ctx, report.RunID)
	require.NoError(t, err)
	assert.Equal(t, entities.RunStatusNoData, record.Status)

	_, err = os.Stat(filepath.Join(cfg.Audit.Dir, report.RunID+".json"))
	assert.NoError(t, err)
}

func TestOrchestratorOptions(t *testing.T) {
	cfg := testConfig(t)
	cfg.Staging.Fanout = true
	cfg.Staging.Workers = 8
	cfg.Session.KeepAliveInterval = 30 * time.Second

	opts := OrchestratorOptions(cfg)

	assert.Equal(t, cfg.Importer.MountPath, opts.MountPath)
	assert.Equal(t, []string{"ws-a"}, opts.Workstations)
	assert.Equal(t, "_", opts.DatasetSeparator)
	assert.Equal(t, 10, opts.DatasetDepth)
	assert.True(t, opts.StagingEnabled)
	assert.True(t, opts.Staging.Fanout)
	assert.Equal(t, 8, opts.Staging.Workers)
	assert.Equal(t, 30*time.Second, opts.KeepAliveInterval)
}

func TestInvokerOptions(t *testing.T) {
	cfg := testConfig(t)
	cfg.Importer.Binary = "/opt/omero/bin/omero"
	cfg.Staging.Enabled = false

	opts := InvokerOptions(cfg)

	assert.Equal(t, "/opt/omero/bin/omero", opts.Binary)
	assert.True(t, opts.InPlace)
	assert.False(t, opts.StagingEnabled)
	assert.Equal(t, 2, opts.ParallelFileset)
}

func TestScheduledParams(t *testing.T) {
	params, err := ScheduledParams(config.Schedule{
		Workstation:     "ws-a",
		DestinationKind: "dataset",
		DestinationID:   12,
		Owner:           "alice",
		OwnerID:         7,
		SkipExisting:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, entities.RunParams{
		Workstation:     "ws-a",
		DestinationKind: entities.ContainerKindDataset,
		DestinationID:   12,
		SkipExisting:    true,
		Owner:           entities.Owner{Name: "alice", ID: 7},
	}, params)
}

func TestScheduledParams_Invalid(t *testing.T) {
	_, err := ScheduledParams(config.Schedule{DestinationKind: "screen"})
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "IMPORT_SCHEDULE_WORKSTATION")
	assert.Contains(t, msg, "IMPORT_SCHEDULE_OWNER")
	assert.Contains(t, msg, "IMPORT_SCHEDULE_DESTINATION_ID")
	assert.Contains(t, msg, "IMPORT_SCHEDULE_DESTINATION_KIND")
}
