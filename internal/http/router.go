package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RouterConfig holds the dependencies of the operational API.
// Nil optional stores disable their endpoints.
type RouterConfig struct {
	Database  Pinger
	Scheduler SchedulerState
	Runs      RunStore
	Tasks     TaskStatusReader
	Version   string
	Logger    *slog.Logger
}

// NewRouter creates the read-only HTTP router: health and run history.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(requestLogger(logger))
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Scheduler, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	api := router.Group("/api")
	if cfg.Runs != nil {
		runs := NewRunsController(cfg.Runs, logger)
		api.GET("/runs", runs.List)
		api.GET("/runs/:id", runs.Get)
	}
	if cfg.Tasks != nil {
		tasks := NewTasksController(cfg.Tasks, logger)
		api.GET("/tasks/:id", tasks.GetTaskStatus)
	}

	return router
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
	}
}
