package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/remote-import/internal/entities"
)

// RunExecutor performs one import run.
type RunExecutor interface {
	Run(ctx context.Context, params entities.RunParams) (*entities.RunReport, error)
}

// ImportRunTask queues one complete import run.
type ImportRunTask struct {
	Params entities.RunParams `json:"params"`
	// Trigger names what queued the run, e.g. "schedule" or "cli".
	Trigger string `json:"trigger"`
}

// Config returns the queue configuration for import runs. Runs are not
// retried: a failed run is a configuration problem that needs a human.
func (t ImportRunTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "import_run",
		MaxAttempts: 1,
		Timeout:     12 * time.Hour,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ImportRunProcessor creates a processor function for ImportRunTask.
func ImportRunProcessor(executor RunExecutor, logger *slog.Logger) backlite.QueueProcessor[ImportRunTask] {
	return func(ctx context.Context, task ImportRunTask) error {
		if executor == nil {
			return fmt.Errorf("import executor not configured")
		}

		report, err := executor.Run(ctx, task.Params)
		if err != nil {
			return fmt.Errorf("import run for %s: %w", task.Params.Workstation, err)
		}

		logger.Info("queued import run finished",
			"run_id", report.RunID,
			"trigger", task.Trigger,
			"status", report.Status,
			"message", report.Message)
		return nil
	}
}

// NewImportRunQueue creates a backlite queue for import runs.
func NewImportRunQueue(executor RunExecutor, logger *slog.Logger) backlite.Queue {
	return backlite.NewQueue(ImportRunProcessor(executor, logger))
}
