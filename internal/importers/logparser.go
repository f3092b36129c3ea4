package importers

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mrlokans/remote-import/internal/entities"
)

const (
	importedMarker = "IMPORT_DONE Imported file:"
	skippedMarker  = "ClientPath match for filename:"

	maxLogLineSize = 1024 * 1024
)

// ParseLog extracts imported and skipped file paths from an import
// diagnostics log. Each marker is checked independently on every line.
func ParseLog(r io.Reader) (entities.LogOutcome, error) {
	var outcome entities.LogOutcome

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLogLineSize)
	for scanner.Scan() {
		line := scanner.Text()
		if path, ok := afterMarker(line, importedMarker); ok {
			outcome.Imported = append(outcome.Imported, path)
		}
		if path, ok := afterMarker(line, skippedMarker); ok {
			outcome.Skipped = append(outcome.Skipped, path)
		}
	}
	if err := scanner.Err(); err != nil {
		return entities.LogOutcome{}, fmt.Errorf("scan import log: %w", err)
	}
	return outcome, nil
}

// ParseLogFile is ParseLog over the file at path.
func ParseLogFile(path string) (entities.LogOutcome, error) {
	f, err := os.Open(path)
	if err != nil {
		return entities.LogOutcome{}, fmt.Errorf("open import log: %w", err)
	}
	defer f.Close()
	return ParseLog(f)
}

func afterMarker(line, marker string) (string, bool) {
	idx := strings.Index(line, marker)
	if idx < 0 {
		return "", false
	}
	return strings.TrimSpace(line[idx+len(marker):]), true
}
