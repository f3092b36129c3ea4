package importers

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

const attachmentMimeType = "text/plain"

// NormalizeFilters turns a comma-separated list such as "txt, *.csv" into
// glob patterns ("*.txt", "*.csv").
func NormalizeFilters(raw string) []string {
	var patterns []string
	for _, token := range strings.Split(raw, ",") {
		token = strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, token)
		if token == "" {
			continue
		}
		if !strings.Contains(token, ".") {
			token = "." + token
		}
		if !strings.Contains(token, "*") {
			token = "*" + token
		}
		patterns = append(patterns, token)
	}
	return patterns
}

// Linker attaches source files matching a filter to a container.
type Linker struct {
	attacher FileAttacher
	logger   *slog.Logger
}

func NewLinker(attacher FileAttacher, logger *slog.Logger) *Linker {
	return &Linker{attacher: attacher, logger: logger}
}

// Attach links every file under sourcePath whose base name matches rawFilter.
// depth <= 1 looks at the top level only; larger depths descend that many
// directory levels. It returns the number of files attached.
func (l *Linker) Attach(ctx context.Context, destinationID uint, rawFilter, sourcePath string, depth int, namespace string) int {
	patterns := NormalizeFilters(rawFilter)
	if len(patterns) == 0 {
		l.logger.Warn("no attachment filter given, nothing attached", "path", sourcePath)
		return 0
	}

	attached := 0
	for _, pattern := range patterns {
		files, err := findMatching(sourcePath, pattern, depth)
		if err != nil {
			l.logger.Warn("failed to search for attachments", "path", sourcePath, "pattern", pattern, "error", err)
			continue
		}
		if len(files) == 0 {
			l.logger.Info("no files to attach", "path", sourcePath, "pattern", pattern)
			continue
		}
		for _, file := range files {
			if ctx.Err() != nil {
				return attached
			}
			if err := l.attacher.AttachFile(ctx, destinationID, file, attachmentMimeType, namespace); err != nil {
				l.logger.Warn("failed to attach file", "file", file, "container_id", destinationID, "error", err)
				continue
			}
			attached++
		}
	}

	l.logger.Info("attached files", "container_id", destinationID, "count", attached)
	return attached
}

func findMatching(root, pattern string, depth int) ([]string, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, err
	}
	if depth < 1 {
		depth = 1
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if path != root && levelOf(root, path) >= depth {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if ok, _ := filepath.Match(pattern, d.Name()); ok {
			files = append(files, path)
		}
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	return files, err
}

// levelOf counts how many directories path is below root.
func levelOf(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(filepath.ToSlash(rel), "/") + 1
}
