// Package staging copies a user's source tree into a timestamped directory
// on server storage so the import reads from a stable local copy.
//
// Layout:
//
//	<dataPath>/<user>_<userID>/<yyyy-MM>/<dd>/<HH-mm-ss.SSS>/
package staging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mrlokans/remote-import/internal/entities"
)

const maxCollisionAttempts = 1000

// ErrStaging wraps every failure to produce a complete staged copy.
var ErrStaging = errors.New("staging source failed")

type Options struct {
	DataPath string
	// Fanout copies top-level files on Workers goroutines.
	Fanout  bool
	Workers int
}

type Stager struct {
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

func NewStager(opts Options, logger *slog.Logger) *Stager {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Stager{opts: opts, logger: logger, now: time.Now}
}

// Stage copies the contents of sourceRoot into a fresh staging directory and
// returns its absolute path. The copy is left in place after the run.
func (s *Stager) Stage(ctx context.Context, sourceRoot string, owner entities.Owner) (string, error) {
	dest, err := s.createStagingDir(owner)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStaging, err)
	}
	if dest, err = filepath.Abs(dest); err != nil {
		return "", fmt.Errorf("%w: %w", ErrStaging, err)
	}

	start := time.Now()
	files, err := s.copyTree(ctx, sourceRoot, dest)
	if err != nil {
		return "", fmt.Errorf("%w: copy %s to %s: %w", ErrStaging, sourceRoot, dest, err)
	}

	s.logger.Info("staged source",
		"source", sourceRoot,
		"destination", dest,
		"files", files,
		"duration", time.Since(start).Round(time.Millisecond))
	return dest, nil
}

// createStagingDir creates the leaf directory, advancing the timestamp by a
// millisecond whenever another run already took it.
func (s *Stager) createStagingDir(owner entities.Owner) (string, error) {
	ts := s.now()
	for attempt := 0; attempt < maxCollisionAttempts; attempt++ {
		dayDir := filepath.Join(s.opts.DataPath, owner.Key(), ts.Format("2006-01"), ts.Format("02"))
		if err := os.MkdirAll(dayDir, 0o755); err != nil {
			return "", err
		}

		leaf := filepath.Join(dayDir, ts.Format("15-04-05.000"))
		err := os.Mkdir(leaf, 0o755)
		if err == nil {
			return leaf, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", err
		}
		ts = ts.Add(time.Millisecond)
	}
	return "", fmt.Errorf("no free staging directory after %d attempts", maxCollisionAttempts)
}

// copyTree copies the entries of src into dst and returns the file count.
func (s *Stager) copyTree(ctx context.Context, src, dst string) (int, error) {
	entries, err := os.ReadDir(src)
	if err != nil {
		return 0, err
	}

	var topFiles, subdirs []fs.DirEntry
	for _, entry := range entries {
		if entry.IsDir() {
			subdirs = append(subdirs, entry)
		} else if entry.Type().IsRegular() {
			topFiles = append(topFiles, entry)
		}
	}

	if err := s.copyFiles(ctx, src, dst, topFiles); err != nil {
		return 0, err
	}
	count := len(topFiles)

	for _, dir := range subdirs {
		n, err := copyDir(ctx, filepath.Join(src, dir.Name()), filepath.Join(dst, dir.Name()))
		if err != nil {
			return 0, err
		}
		count += n
	}
	return count, nil
}

func (s *Stager) copyFiles(ctx context.Context, src, dst string, files []fs.DirEntry) error {
	if !s.opts.Fanout || len(files) < 2 {
		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := copyFile(filepath.Join(src, f.Name()), filepath.Join(dst, f.Name())); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for _, f := range files {
		name := f.Name()
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return copyFile(filepath.Join(src, name), filepath.Join(dst, name))
		})
	}
	return g.Wait()
}

func copyDir(ctx context.Context, src, dst string) (int, error) {
	count := 0
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(target, info.Mode().Perm())
		case d.Type().IsRegular():
			count++
			return copyFile(path, target)
		default:
			return nil
		}
	})
	return count, err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
