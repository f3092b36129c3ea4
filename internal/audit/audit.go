// Package audit writes activity reports of import runs as JSON files.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/mrlokans/remote-import/internal/entities"
)

type Auditor struct {
	AuditDir string
}

func NewAuditor(auditDir string) *Auditor {
	return &Auditor{
		AuditDir: auditDir,
	}
}

// ActivityReport is the content of one audit file.
type ActivityReport struct {
	Params  entities.RunParams  `json:"params"`
	Report  *entities.RunReport `json:"report"`
	Summary string              `json:"summary"`
}

// Record writes the run's activity report to <run id>.json.
func (a *Auditor) Record(_ context.Context, params entities.RunParams, report *entities.RunReport) error {
	_, err := a.SaveJSON(report.RunID, ActivityReport{
		Params:  params,
		Report:  report,
		Summary: report.Summary(),
	})
	return err
}

// SaveJSON saves data as indented JSON named after id, or after a fresh
// UUID when id is empty.
func (a *Auditor) SaveJSON(id string, data any) (string, error) {
	if err := a.ensureAuditDir(); err != nil {
		return "", fmt.Errorf("failed to ensure audit directory: %w", err)
	}

	if id == "" {
		id = uuid.New().String()
	}
	filename := fmt.Sprintf("%s.json", id)
	path := filepath.Join(a.AuditDir, filename)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal data to JSON: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write audit file: %w", err)
	}

	return filename, nil
}

func (a *Auditor) ensureAuditDir() error {
	if err := os.MkdirAll(a.AuditDir, 0755); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}
	return nil
}
