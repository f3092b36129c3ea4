package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mrlokans/remote-import/internal/entities"
)

// ProjectCreator creates root projects in the catalogue.
type ProjectCreator interface {
	CreateProject(ctx context.Context, name string) (*entities.Container, error)
}

// CreateProjectCommand creates an import destination project.
type CreateProjectCommand struct {
	Name string
}

func NewCreateProjectCommand() *CreateProjectCommand {
	return &CreateProjectCommand{}
}

func (cmd *CreateProjectCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-project", flag.ContinueOnError)
	fs.StringVar(&cmd.Name, "name", "", "Project name (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-project -name <name>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create a Project to import into. Prints the new project ID.\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	cmd.Name = strings.TrimSpace(cmd.Name)
	if cmd.Name == "" {
		return fmt.Errorf("required flag -name not provided")
	}
	return nil
}

func (cmd *CreateProjectCommand) Run(ctx context.Context, creator ProjectCreator, out io.Writer) error {
	project, err := creator.CreateProject(ctx, cmd.Name)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Created project %q with ID %d\n", project.Name, project.ID)
	return nil
}
