package importers

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrlokans/remote-import/internal/entities"
)

// Classify decides which files directly under dir the import tool did not
// account for, and whether each is worth retrying. A file is retryable when
// another file with the same extension was imported or skipped; otherwise it
// is assumed not to be an image format.
//
// An empty outcome gives no extension evidence, so every file lands in Other.
// dir is made absolute first, matching the paths the import tool reports.
func Classify(logger *slog.Logger, outcome entities.LogOutcome, dir string) (entities.ClassificationResult, error) {
	dir = canonicalPath(dir)
	files, err := listCandidates(dir)
	if err != nil {
		return entities.ClassificationResult{}, err
	}

	if outcome.IsEmpty() && len(files) > 0 {
		logger.Warn("import reported no files; treating every file as non-image",
			"dir", dir, "files", len(files))
	}

	imported := outcome.ImportedSet()
	skipped := outcome.SkippedSet()
	accounted := make(map[string]bool, len(files))
	seenExt := make(map[string]bool)

	for _, path := range files {
		_, isImported := imported[path]
		_, isSkipped := skipped[path]
		if isImported || isSkipped {
			accounted[path] = true
			seenExt[filepath.Ext(path)] = true
		}
	}

	var result entities.ClassificationResult
	for _, path := range files {
		if accounted[path] {
			continue
		}
		if seenExt[filepath.Ext(path)] {
			result.Retryable = append(result.Retryable, path)
		} else {
			result.Other = append(result.Other, path)
		}
	}
	return result, nil
}

// listCandidates returns regular files in dir that have an extension and are
// not hidden, sorted by name.
func listCandidates(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || strings.HasPrefix(name, ".") || !strings.Contains(name, ".") {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	return files, nil
}
