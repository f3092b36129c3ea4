package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/remote-import/internal/entities"
)

// Runner executes one import run.
type Runner interface {
	Run(ctx context.Context, params entities.RunParams) (*entities.RunReport, error)
}

// ImportCommand runs a single import in the foreground and prints its report.
type ImportCommand struct {
	Workstation  string
	Kind         string
	DestID       uint
	SkipExisting bool
	Attach       bool
	AttachKind   string
	AttachFilter string
	User         string
	UserID       int64

	params entities.RunParams
}

func NewImportCommand() *ImportCommand {
	return &ImportCommand{}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)

	fs.StringVar(&cmd.Workstation, "workstation", "", "Workstation to import from (required)")
	fs.StringVar(&cmd.Kind, "kind", "Project", "Destination kind: Project or Dataset")
	fs.UintVar(&cmd.DestID, "id", 0, "Destination container ID (required)")
	fs.BoolVar(&cmd.SkipExisting, "skip-existing", true, "Skip files that were already imported")
	fs.BoolVar(&cmd.Attach, "attach", false, "Attach non-image files matching -attach-filter")
	fs.StringVar(&cmd.AttachKind, "attach-kind", "Dataset", "Where to attach files: Project or Dataset")
	fs.StringVar(&cmd.AttachFilter, "attach-filter", "*.txt", "Comma-separated filename patterns of files to attach")
	fs.StringVar(&cmd.User, "user", "", "Owner user name, also the source directory name (required)")
	fs.Int64Var(&cmd.UserID, "user-id", 0, "Owner user ID, used in the staging path")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import -workstation <name> -id <container id> -user <name> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import everything under <MOUNT_PATH>/<workstation>/<user> into a Project or Dataset.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Import into project 12, one dataset per directory:\n")
		fmt.Fprintf(os.Stderr, "  %s import -workstation cn-imaris -id 12 -user alice -user-id 7\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Import into dataset 40 and attach text and csv files to it:\n")
		fmt.Fprintf(os.Stderr, "  %s import -workstation cn-lattice -kind Dataset -id 40 -user alice -attach -attach-filter \"*.txt,*.csv\"\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Workstation == "" {
		return fmt.Errorf("required flag -workstation not provided")
	}
	if cmd.DestID == 0 {
		return fmt.Errorf("required flag -id not provided")
	}
	if cmd.User == "" {
		return fmt.Errorf("required flag -user not provided")
	}

	kind, err := entities.ParseContainerKind(cmd.Kind)
	if err != nil {
		return fmt.Errorf("-kind: %w", err)
	}
	attachKind, err := entities.ParseContainerKind(cmd.AttachKind)
	if err != nil {
		return fmt.Errorf("-attach-kind: %w", err)
	}

	cmd.params = entities.RunParams{
		Workstation:     cmd.Workstation,
		DestinationKind: kind,
		DestinationID:   cmd.DestID,
		SkipExisting:    cmd.SkipExisting,
		AttachFiles:     cmd.Attach,
		AttachKind:      attachKind,
		AttachFilter:    cmd.AttachFilter,
		Owner:           entities.Owner{Name: cmd.User, ID: cmd.UserID},
	}
	return nil
}

// Params returns the run parameters built by ParseFlags.
func (cmd *ImportCommand) Params() entities.RunParams {
	return cmd.params
}

// Run executes the import and writes the summary to out. Import failures
// are part of the summary; only configuration problems return an error.
func (cmd *ImportCommand) Run(ctx context.Context, runner Runner, out io.Writer) error {
	fmt.Fprintln(out, "Remote Import")
	fmt.Fprintln(out, "=============")
	fmt.Fprintf(out, "Workstation: %s\n", cmd.params.Workstation)
	fmt.Fprintf(out, "Destination: %s %d\n", cmd.params.DestinationKind, cmd.params.DestinationID)
	fmt.Fprintf(out, "Owner: %s\n\n", cmd.params.Owner.Name)

	report, err := runner.Run(ctx, cmd.params)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, report.Summary())
	if report.RetryTranscript != "" {
		fmt.Fprintln(out)
		fmt.Fprint(out, report.RetryTranscript)
	}
	fmt.Fprintf(out, "\nRun ID: %s\n", report.RunID)
	return nil
}
