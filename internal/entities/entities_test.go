package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContainerKind(t *testing.T) {
	tests := []struct {
		input string
		want  ContainerKind
	}{
		{"Project", ContainerKindProject},
		{"project", ContainerKindProject},
		{" DATASET ", ContainerKindDataset},
	}
	for _, tt := range tests {
		got, err := ParseContainerKind(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseContainerKind("Screen")
	assert.Error(t, err)
}

func TestOwner_Key(t *testing.T) {
	assert.Equal(t, "alice_7", Owner{Name: "alice", ID: 7}.Key())
}

func TestLogOutcome(t *testing.T) {
	assert.True(t, LogOutcome{}.IsEmpty())

	outcome := LogOutcome{Imported: []string{"/a.tif", "/a.tif"}, Skipped: []string{"/b.tif"}}
	assert.False(t, outcome.IsEmpty())
	assert.Len(t, outcome.ImportedSet(), 1)
	assert.Contains(t, outcome.SkippedSet(), "/b.tif")
}

func TestRunReport_Duration(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	report := &RunReport{StartedAt: start}
	assert.Zero(t, report.Duration())

	report.FinishedAt = start.Add(90 * time.Second)
	assert.Equal(t, 90*time.Second, report.Duration())
}

func TestRunReport_Summary(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("no data shows only the message", func(t *testing.T) {
		report := &RunReport{Status: RunStatusNoData, Message: "Remote system not available: /Importer/ws"}
		assert.Equal(t, "Remote system not available: /Importer/ws", report.Summary())
	})

	t.Run("lists failed files", func(t *testing.T) {
		report := &RunReport{
			Status:        RunStatusCompletedWithFailures,
			Message:       "Import completed with failures",
			JobCount:      2,
			ImportedCount: 3,
			Skipped:       []string{"/s.tif"},
			Failed:        []string{"/f1.czi", "/f2.czi"},
			Unrecognized:  []string{"/notes.txt"},
			StartedAt:     start,
			FinishedAt:    start.Add(1500 * time.Millisecond),
		}

		assert.Equal(t, "Import completed with failures\n"+
			"Jobs: 2, imported: 3, skipped: 1, failed: 2, non-image files: 1\n"+
			"NOT IMPORTED FILES:\n  /f1.czi\n  /f2.czi\n"+
			"Duration: 1.5s", report.Summary())
	})
}
