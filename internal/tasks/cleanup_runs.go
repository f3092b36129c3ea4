package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mikestefanello/backlite"
)

// RunHistoryCleaner deletes old run history entries.
type RunHistoryCleaner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupRunHistoryTask removes run records older than the retention period.
type CleanupRunHistoryTask struct {
	Retention time.Duration `json:"retention"`
}

// Config returns the queue configuration for run history cleanup.
func (t CleanupRunHistoryTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_run_history",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupRunHistoryProcessor creates a processor function for CleanupRunHistoryTask.
func CleanupRunHistoryProcessor(cleaner RunHistoryCleaner, logger *slog.Logger) backlite.QueueProcessor[CleanupRunHistoryTask] {
	return func(ctx context.Context, task CleanupRunHistoryTask) error {
		if cleaner == nil {
			return fmt.Errorf("run history cleaner not configured")
		}

		retention := task.Retention
		if retention <= 0 {
			retention = DefaultConfig().RetentionDuration
		}

		deleted, err := cleaner.DeleteOlderThan(ctx, time.Now().Add(-retention))
		if err != nil {
			return fmt.Errorf("cleanup run history: %w", err)
		}

		logger.Info("cleaned up run history", "deleted", deleted, "retention", retention)
		return nil
	}
}

// NewCleanupRunHistoryQueue creates a backlite queue for run history cleanup.
func NewCleanupRunHistoryQueue(cleaner RunHistoryCleaner, logger *slog.Logger) backlite.Queue {
	return backlite.NewQueue(CleanupRunHistoryProcessor(cleaner, logger))
}
