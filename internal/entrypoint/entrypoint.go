package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/remote-import/internal/config"
	http_controllers "github.com/mrlokans/remote-import/internal/http"
	"github.com/mrlokans/remote-import/internal/scheduler"
	"github.com/mrlokans/remote-import/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM, then shuts down with
// the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, logger *slog.Logger, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}
	logger.Info("shutting down server", "timeout", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop queued work first so no new run starts during shutdown.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server exiting")
	return nil
}

// Run starts the long-running service: task queue workers, the cron
// scheduler and the read-only HTTP API.
func Run(cfg *config.Config, version string, logger *slog.Logger) error {
	logger.Info("starting remote-import", "version", version)

	app, err := NewApp(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("error closing database", "error", err)
		}
	}()

	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var importScheduler *scheduler.ImportScheduler
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.Config{
			Workers:           cfg.Tasks.Workers,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				logger.Error("error closing task client", "error", err)
			}
		}()

		taskClient.Register(
			tasks.NewImportRunQueue(app.Orchestrator, logger),
			tasks.NewCleanupRunHistoryQueue(app.Runs, logger),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		importScheduler, err = newScheduler(cfg, taskClient, logger)
		if err != nil {
			taskCtxCancel()
			return err
		}
		if err := importScheduler.Start(taskCtx); err != nil {
			taskCtxCancel()
			return fmt.Errorf("failed to start import scheduler: %w", err)
		}
	} else if cfg.Schedule.Enabled {
		logger.Warn("scheduled import requires the task queue; set TASKS_ENABLED=true")
	}

	routerCfg := http_controllers.RouterConfig{
		Database: app.DB,
		Runs:     app.Runs,
		Version:  version,
		Logger:   logger,
	}
	if taskClient != nil {
		routerCfg.Tasks = taskClient
	}
	if importScheduler != nil {
		routerCfg.Scheduler = importScheduler
	}
	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if importScheduler != nil {
			importScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	return Serve(router, cfg, logger, onShutdown)
}

func newScheduler(cfg *config.Config, enqueuer scheduler.Enqueuer, logger *slog.Logger) (*scheduler.ImportScheduler, error) {
	opts := scheduler.Options{
		Enabled:   cfg.Schedule.Enabled,
		Schedule:  cfg.Schedule.Cron,
		Retention: cfg.Tasks.RetentionDuration,
	}
	if cfg.Schedule.Enabled {
		params, err := ScheduledParams(cfg.Schedule)
		if err != nil {
			return nil, fmt.Errorf("invalid scheduled import: %w", err)
		}
		opts.Params = params
	}
	return scheduler.NewImportScheduler(enqueuer, opts, logger), nil
}
