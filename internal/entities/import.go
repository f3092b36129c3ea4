package entities

import (
	"fmt"
	"strings"
	"time"
)

// ImportTarget is the destination of a run, resolved once at its start.
type ImportTarget struct {
	ID     uint
	Kind   ContainerKind
	Handle *Container
}

// ImportJob pairs one source directory with the container receiving its files.
type ImportJob struct {
	SourcePath    string
	DestinationID uint
}

// LogOutcome holds the files an import invocation reported as imported or
// skipped. Paths are kept exactly as logged; duplicates are preserved.
type LogOutcome struct {
	Imported []string
	Skipped  []string
}

// IsEmpty reports whether the tool neither imported nor skipped anything.
func (o LogOutcome) IsEmpty() bool {
	return len(o.Imported) == 0 && len(o.Skipped) == 0
}

func (o LogOutcome) ImportedSet() map[string]struct{} {
	return toSet(o.Imported)
}

func (o LogOutcome) SkippedSet() map[string]struct{} {
	return toSet(o.Skipped)
}

func toSet(paths []string) map[string]struct{} {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return set
}

// ClassificationResult partitions the files nobody accounted for.
type ClassificationResult struct {
	// Retryable files share a suffix with a file that was imported or skipped.
	Retryable []string
	// Other files have a suffix the import tool never reported.
	Other []string
}

// Owner identifies the user a run imports for.
type Owner struct {
	Name string `json:"name"`
	ID   int64  `json:"id"`
}

// Key is the per-owner staging directory name.
func (o Owner) Key() string {
	return fmt.Sprintf("%s_%d", o.Name, o.ID)
}

// RunParams are the parameters of a single import run.
type RunParams struct {
	Workstation     string        `json:"workstation"`
	DestinationKind ContainerKind `json:"destination_kind"`
	DestinationID   uint          `json:"destination_id"`
	SkipExisting    bool          `json:"skip_existing"`
	AttachFiles     bool          `json:"attach_files"`
	AttachKind      ContainerKind `json:"attach_kind"`
	AttachFilter    string        `json:"attach_filter"`
	Owner           Owner         `json:"owner"`
}

type RunStatus string

const (
	RunStatusCompleted             RunStatus = "completed"
	RunStatusCompletedWithFailures RunStatus = "completed_with_failures"
	RunStatusNoData                RunStatus = "no_data"
	RunStatusNoImports             RunStatus = "no_imports"
)

// RunReport accumulates the results of all jobs in a run.
type RunReport struct {
	RunID           string    `json:"run_id"`
	Status          RunStatus `json:"status"`
	Message         string    `json:"message"`
	Workstation     string    `json:"workstation"`
	SourcePath      string    `json:"source_path,omitempty"`
	StagingPath     string    `json:"staging_path,omitempty"`
	JobCount        int       `json:"job_count"`
	ImportedCount   int       `json:"imported_count"`
	Skipped         []string  `json:"skipped,omitempty"`
	Failed          []string  `json:"failed,omitempty"`
	Unrecognized    []string  `json:"unrecognized,omitempty"`
	RetryTranscript string    `json:"retry_transcript,omitempty"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
}

// Duration is zero until the run has finished.
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary renders the report for humans.
func (r *RunReport) Summary() string {
	var b strings.Builder
	b.WriteString(r.Message)
	if r.Status == RunStatusNoData {
		return b.String()
	}
	fmt.Fprintf(&b, "\nJobs: %d, imported: %d, skipped: %d, failed: %d",
		r.JobCount, r.ImportedCount, len(r.Skipped), len(r.Failed))
	if len(r.Unrecognized) > 0 {
		fmt.Fprintf(&b, ", non-image files: %d", len(r.Unrecognized))
	}
	if len(r.Failed) > 0 {
		b.WriteString("\nNOT IMPORTED FILES:")
		for _, f := range r.Failed {
			b.WriteString("\n  ")
			b.WriteString(f)
		}
	}
	if d := r.Duration(); d > 0 {
		fmt.Fprintf(&b, "\nDuration: %s", d.Round(time.Millisecond))
	}
	return b.String()
}

// RunRecord is the persisted history entry of a run.
type RunRecord struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	RunID           string        `gorm:"size:36;uniqueIndex" json:"run_id"`
	Workstation     string        `gorm:"size:100;index" json:"workstation"`
	DestinationKind ContainerKind `gorm:"size:20" json:"destination_kind"`
	DestinationID   uint          `json:"destination_id"`
	Status          RunStatus     `gorm:"size:30;index" json:"status"`
	Message         string        `gorm:"size:500" json:"message"`
	ImportedCount   int           `json:"imported_count"`
	SkippedCount    int           `json:"skipped_count"`
	FailedCount     int           `json:"failed_count"`
	Report          string        `gorm:"type:text" json:"report,omitempty"` // JSON-encoded RunReport
	StartedAt       time.Time     `gorm:"index" json:"started_at"`
	FinishedAt      time.Time     `json:"finished_at"`
}

func (RunRecord) TableName() string {
	return "run_records"
}
