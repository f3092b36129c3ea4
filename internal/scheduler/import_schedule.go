// Package scheduler queues unattended import runs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/remote-import/internal/entities"
	"github.com/mrlokans/remote-import/internal/tasks"
)

// CleanupSchedule purges old run history daily.
const CleanupSchedule = "30 4 * * *"

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Enqueuer is implemented by tasks.Client.
type Enqueuer interface {
	EnqueueRun(task tasks.ImportRunTask) (string, error)
	EnqueueCleanup(task tasks.CleanupRunHistoryTask) (string, error)
}

// Options configures the scheduled import.
type Options struct {
	Enabled   bool
	Schedule  string
	Params    entities.RunParams
	Retention time.Duration
}

// ImportScheduler enqueues the configured run and history cleanup on schedule.
// Runs execute on the task queue, so a slow import never blocks the cron loop.
type ImportScheduler struct {
	enqueuer Enqueuer
	opts     Options
	logger   *slog.Logger

	cron      *cron.Cron
	mu        sync.RWMutex
	isRunning bool
}

func NewImportScheduler(enqueuer Enqueuer, opts Options, logger *slog.Logger) *ImportScheduler {
	return &ImportScheduler{
		enqueuer: enqueuer,
		opts:     opts,
		logger:   logger,
		cron:     cron.New(cron.WithParser(parser)),
	}
}

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return nil
}

// Start registers the jobs and starts the cron loop. It stops when ctx is done.
func (s *ImportScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if s.opts.Enabled {
		if err := ValidateSchedule(s.opts.Schedule); err != nil {
			return err
		}
		if _, err := s.cron.AddFunc(s.opts.Schedule, s.enqueueImport); err != nil {
			return fmt.Errorf("failed to schedule import: %w", err)
		}
		s.logger.Info("import scheduler: scheduled import enabled",
			"schedule", s.opts.Schedule,
			"workstation", s.opts.Params.Workstation,
			"next_run", nextRun(s.opts.Schedule))
	} else {
		s.logger.Info("import scheduler: scheduled import disabled")
	}

	if _, err := s.cron.AddFunc(CleanupSchedule, s.enqueueCleanup); err != nil {
		return fmt.Errorf("failed to schedule history cleanup: %w", err)
	}

	s.cron.Start()
	s.isRunning = true

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop stops the cron loop. Already queued runs are unaffected.
func (s *ImportScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	s.isRunning = false
	s.logger.Info("import scheduler: stopped")
}

// IsRunning reports whether the cron loop is active. It backs the
// scheduler check of /health.
func (s *ImportScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *ImportScheduler) enqueueImport() {
	id, err := s.enqueuer.EnqueueRun(tasks.ImportRunTask{Params: s.opts.Params, Trigger: "schedule"})
	if err != nil {
		s.logger.Error("import scheduler: failed to queue import", "error", err)
		return
	}
	s.logger.Info("import scheduler: queued import", "task_id", id, "next_run", nextRun(s.opts.Schedule))
}

func (s *ImportScheduler) enqueueCleanup() {
	if _, err := s.enqueuer.EnqueueCleanup(tasks.CleanupRunHistoryTask{Retention: s.opts.Retention}); err != nil {
		s.logger.Error("import scheduler: failed to queue history cleanup", "error", err)
	}
}

func nextRun(schedule string) time.Time {
	sched, err := parser.Parse(schedule)
	if err != nil {
		return time.Time{}
	}
	return sched.Next(time.Now())
}
