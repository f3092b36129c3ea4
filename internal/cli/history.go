package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/mrlokans/remote-import/internal/entities"
)

// RunLister reads the run history.
type RunLister interface {
	List(ctx context.Context, limit, offset int) ([]entities.RunRecord, int64, error)
}

// HistoryCommand prints the most recent import runs.
type HistoryCommand struct {
	Limit int
}

func NewHistoryCommand() *HistoryCommand {
	return &HistoryCommand{}
}

func (cmd *HistoryCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.IntVar(&cmd.Limit, "limit", 20, "Number of runs to show")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s history [-limit N]\n\n", os.Args[0])
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Limit < 1 {
		return fmt.Errorf("-limit must be at least 1")
	}
	return nil
}

func (cmd *HistoryCommand) Run(ctx context.Context, lister RunLister, out io.Writer) error {
	records, total, err := lister.List(ctx, cmd.Limit, 0)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "No import runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tWORKSTATION\tSTATUS\tIMPORTED\tSKIPPED\tFAILED\tRUN ID")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.StartedAt.Local().Format(time.DateTime), r.Workstation, r.Status,
			r.ImportedCount, r.SkippedCount, r.FailedCount, r.RunID)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nShowing %d of %d runs\n", len(records), total)
	return nil
}
