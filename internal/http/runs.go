package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/remote-import/internal/database/runs"
	"github.com/mrlokans/remote-import/internal/entities"
)

// RunStore is the read side of the run history.
type RunStore interface {
	List(ctx context.Context, limit, offset int) ([]entities.RunRecord, int64, error)
	GetByRunID(ctx context.Context, runID string) (*entities.RunRecord, error)
}

// RunsController exposes the import run history.
type RunsController struct {
	store  RunStore
	logger *slog.Logger
}

func NewRunsController(store RunStore, logger *slog.Logger) *RunsController {
	return &RunsController{store: store, logger: logger}
}

// RunDetail is a run record with its decoded report.
type RunDetail struct {
	entities.RunRecord
	Report *entities.RunReport `json:"report,omitempty"`
}

// List handles GET /api/runs
func (rc *RunsController) List(c *gin.Context) {
	limit, offset, ok := parsePagination(c)
	if !ok {
		return
	}

	records, total, err := rc.store.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondInternalError(c, rc.logger, err)
		return
	}
	if records == nil {
		records = []entities.RunRecord{}
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    records,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(records)) < total,
	})
}

// Get handles GET /api/runs/:id
func (rc *RunsController) Get(c *gin.Context) {
	record, err := rc.store.GetByRunID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, runs.ErrRunNotFound) {
		respondNotFound(c, "run")
		return
	}
	if err != nil {
		respondInternalError(c, rc.logger, err)
		return
	}

	detail := RunDetail{RunRecord: *record}
	detail.RunRecord.Report = ""
	if record.Report != "" {
		var report entities.RunReport
		if err := json.Unmarshal([]byte(record.Report), &report); err != nil {
			rc.logger.Warn("stored run report is not valid JSON", "run_id", record.RunID, "error", err)
		} else {
			detail.Report = &report
		}
	}

	c.JSON(http.StatusOK, detail)
}
