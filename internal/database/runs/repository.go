// Package runs provides database operations for import run history.
//
// # Usage
//
//	repo := runs.NewRepository(db)
//	err := repo.Save(ctx, record)
//	recent, err := repo.List(ctx, 20, 0)
package runs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/remote-import/internal/entities"
)

// ErrRunNotFound is returned when no run matches the requested ID.
var ErrRunNotFound = errors.New("run not found")

// Repository handles run history database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new runs repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Save creates the record, or updates it when a record with the same RunID exists.
func (r *Repository) Save(ctx context.Context, record *entities.RunRecord) error {
	var existing entities.RunRecord
	err := r.db.WithContext(ctx).Where("run_id = ?", record.RunID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(record).Error
	}
	if err != nil {
		return err
	}

	record.ID = existing.ID
	return r.db.WithContext(ctx).Save(record).Error
}

// GetByRunID retrieves a run by its run ID.
func (r *Repository) GetByRunID(ctx context.Context, runID string) (*entities.RunRecord, error) {
	var record entities.RunRecord
	err := r.db.WithContext(ctx).Where("run_id = ?", runID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns runs newest first. The Report column is left empty.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]entities.RunRecord, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&entities.RunRecord{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []entities.RunRecord
	err := r.db.WithContext(ctx).
		Omit("report").
		Order("started_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// Record stores a finished run report as a history entry.
func (r *Repository) Record(ctx context.Context, params entities.RunParams, report *entities.RunReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode run report: %w", err)
	}

	return r.Save(ctx, &entities.RunRecord{
		RunID:           report.RunID,
		Workstation:     report.Workstation,
		DestinationKind: params.DestinationKind,
		DestinationID:   params.DestinationID,
		Status:          report.Status,
		Message:         truncate(report.Message, 500),
		ImportedCount:   report.ImportedCount,
		SkippedCount:    len(report.Skipped),
		FailedCount:     len(report.Failed),
		Report:          string(payload),
		StartedAt:       report.StartedAt,
		FinishedAt:      report.FinishedAt,
	})
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// DeleteOlderThan removes runs that started before cutoff.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("started_at < ?", cutoff).Delete(&entities.RunRecord{})
	return result.RowsAffected, result.Error
}
