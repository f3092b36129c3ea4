package importers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// RetryResult is the outcome of re-importing files one at a time.
type RetryResult struct {
	StillFailed       []string
	RecoveredImported int
	RecoveredSkipped  []string
	Transcript        string
}

// Retrier re-imports individual files that a directory import missed.
type Retrier struct {
	invoker Invoker
	logger  *slog.Logger
}

func NewRetrier(invoker Invoker, logger *slog.Logger) *Retrier {
	return &Retrier{invoker: invoker, logger: logger}
}

// Retry invokes the import once per file at depth 1 without a log
// attachment. It never aborts early: once ctx is done the remaining files
// are reported as still failed.
func (r *Retrier) Retry(ctx context.Context, destinationID uint, files []string, skipExisting bool) RetryResult {
	var result RetryResult
	if len(files) == 0 {
		return result
	}

	var transcript strings.Builder
	fmt.Fprintf(&transcript, "-----Retry Import For: %d ------\n", len(files))

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			remaining := files[i:]
			result.StillFailed = append(result.StillFailed, remaining...)
			for _, f := range remaining {
				fmt.Fprintf(&transcript, "%s: not retried (%v)\n", f, err)
			}
			break
		}

		outcome := r.invoker.Invoke(ctx, InvokeRequest{
			Path:          file,
			DestinationID: destinationID,
			SkipExisting:  skipExisting,
			Depth:         1,
		})

		switch {
		case len(outcome.Imported) > 0:
			result.RecoveredImported++
			fmt.Fprintf(&transcript, "%s: imported\n", file)
		case len(outcome.Skipped) > 0:
			result.RecoveredSkipped = append(result.RecoveredSkipped, file)
			fmt.Fprintf(&transcript, "%s: skipped\n", file)
		default:
			result.StillFailed = append(result.StillFailed, file)
			fmt.Fprintf(&transcript, "%s: failed\n", file)
		}
	}

	result.Transcript = transcript.String()
	r.logger.Info("retry finished",
		"dataset_id", destinationID,
		"files", len(files),
		"imported", result.RecoveredImported,
		"skipped", len(result.RecoveredSkipped),
		"failed", len(result.StillFailed))
	return result
}
