package importers

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mrlokans/remote-import/internal/entities"
)

// InvokeRequest describes one call of the import tool.
type InvokeRequest struct {
	Path          string
	DestinationID uint
	SkipExisting  bool
	Depth         int
	// LogTarget receives the diagnostics log as an attachment; nil skips it.
	LogTarget    *uint
	LogNamespace string
}

// Invoker runs the import tool and reports what it imported or skipped.
// Failures never surface as errors: they produce an empty outcome.
//
// Implementations:
//   - CLIInvoker (invoker.go) - external import client executable
type Invoker interface {
	Invoke(ctx context.Context, req InvokeRequest) entities.LogOutcome
}

// FileAttacher links a local file to a container.
type FileAttacher interface {
	AttachFile(ctx context.Context, containerID uint, localPath, mimeType, namespace string) error
}

// CLIOptions configures the import client command line.
type CLIOptions struct {
	Binary          string
	InPlace         bool
	ParallelFileset int
	ParallelUpload  int
	// StagingEnabled suppresses --exclude=clientpath, since staged copies
	// always have fresh client paths.
	StagingEnabled bool
	// TempDir holds the per-call log files; empty means os.TempDir.
	TempDir string
}

// CLIInvoker runs the import client as a subprocess.
type CLIInvoker struct {
	opts     CLIOptions
	attacher FileAttacher
	logger   *slog.Logger
}

var _ Invoker = (*CLIInvoker)(nil)

// NewCLIInvoker creates an invoker. attacher may be nil when no request
// carries a LogTarget.
func NewCLIInvoker(opts CLIOptions, attacher FileAttacher, logger *slog.Logger) *CLIInvoker {
	return &CLIInvoker{opts: opts, attacher: attacher, logger: logger}
}

// BuildArguments returns the argument vector (without the binary) for req,
// writing progress to progressLog and diagnostics to diagnosticsLog.
func (c *CLIInvoker) BuildArguments(req InvokeRequest, progressLog, diagnosticsLog string) []string {
	args := []string{"import", "-c"}
	if c.opts.InPlace {
		args = append(args, "--transfer=ln_s")
	}
	args = append(args,
		"-d", strconv.FormatUint(uint64(req.DestinationID), 10),
		"--parallel-fileset", strconv.Itoa(c.opts.ParallelFileset),
		"--parallel-upload", strconv.Itoa(c.opts.ParallelUpload),
		"--no-upgrade-check",
		"--depth", strconv.Itoa(req.Depth),
	)
	if req.SkipExisting && !c.opts.StagingEnabled {
		args = append(args, "--exclude=clientpath")
	}
	args = append(args,
		canonicalPath(req.Path),
		"--file", progressLog,
		"--errs", diagnosticsLog,
	)
	return args
}

// CommandLine renders args for logging, escaping whitespace.
func CommandLine(binary string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	for _, a := range append([]string{binary}, args...) {
		parts = append(parts, escapeWhitespace(a))
	}
	return strings.Join(parts, " ")
}

func (c *CLIInvoker) Invoke(ctx context.Context, req InvokeRequest) entities.LogOutcome {
	progressLog, err := c.tempLog("import-progress-*.log")
	if err != nil {
		c.logger.Error("failed to create import log file", "error", err)
		return entities.LogOutcome{}
	}
	defer os.Remove(progressLog)

	diagnosticsLog, err := c.tempLog("import-diagnostics-*.log")
	if err != nil {
		c.logger.Error("failed to create import log file", "error", err)
		return entities.LogOutcome{}
	}
	defer os.Remove(diagnosticsLog)

	args := c.BuildArguments(req, progressLog, diagnosticsLog)
	c.logger.Info("starting import", "command", CommandLine(c.opts.Binary, args))

	start := time.Now()
	if err := c.run(ctx, args); err != nil {
		c.logger.Error("import failed", "path", req.Path, "dataset_id", req.DestinationID, "error", err)
		return entities.LogOutcome{}
	}

	outcome, err := ParseLogFile(diagnosticsLog)
	if err != nil {
		c.logger.Error("failed to read import log", "path", req.Path, "error", err)
		return entities.LogOutcome{}
	}
	c.logger.Info("import finished",
		"path", req.Path,
		"imported", len(outcome.Imported),
		"skipped", len(outcome.Skipped),
		"duration", time.Since(start).Round(time.Millisecond))

	if req.LogTarget != nil && c.attacher != nil {
		namespace := req.LogNamespace + "_log"
		if err := c.attacher.AttachFile(ctx, *req.LogTarget, diagnosticsLog, "text/csv", namespace); err != nil {
			c.logger.Warn("failed to attach import log", "container_id", *req.LogTarget, "error", err)
		}
	}
	return outcome
}

func (c *CLIInvoker) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, c.opts.Binary, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		// Kill the whole process group, the client spawns workers.
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = 5 * time.Second

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		if tail := lastLines(output.String(), 5); tail != "" {
			return fmt.Errorf("%w: %s", err, tail)
		}
		return err
	}
	return nil
}

func (c *CLIInvoker) tempLog(pattern string) (string, error) {
	f, err := os.CreateTemp(c.opts.TempDir, pattern)
	if err != nil {
		return "", err
	}
	name := f.Name()
	return name, f.Close()
}

func canonicalPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return filepath.ToSlash(path)
}

func escapeWhitespace(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == ' ' || r == '\t' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
