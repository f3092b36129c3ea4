package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mrlokans/remote-import/internal/cli"
	"github.com/mrlokans/remote-import/internal/config"
	"github.com/mrlokans/remote-import/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

// command is implemented by every subcommand in internal/cli.
type command interface {
	ParseFlags(args []string) error
}

func main() {
	_ = godotenv.Load(".env")

	name := "serve"
	var args []string
	if len(os.Args) >= 2 {
		name, args = os.Args[1], os.Args[2:]
	}

	switch name {
	case "-h", "--help", "help":
		printUsage()
		return
	case "serve", "import", "create-project", "history":
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	cfg := config.NewConfig()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration:\n%v\n", err)
		os.Exit(1)
	}

	logger, closeLog := config.SetupLogger(cfg.Logging.File, cfg.Logging.Level)
	defer closeLog()
	slog.SetDefault(logger)

	if err := run(name, args, cfg, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		closeLog()
		os.Exit(1)
	}
}

func run(name string, args []string, cfg *config.Config, logger *slog.Logger) error {
	if name == "serve" {
		return entrypoint.Run(cfg, Version, logger)
	}

	var cmd command
	switch name {
	case "import":
		cmd = cli.NewImportCommand()
	case "create-project":
		cmd = cli.NewCreateProjectCommand()
	case "history":
		cmd = cli.NewHistoryCommand()
	}
	if err := cmd.ParseFlags(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	app, err := entrypoint.NewApp(cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	// Interrupting a foreground import stops the import client as well.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch c := cmd.(type) {
	case *cli.ImportCommand:
		return c.Run(ctx, app.Orchestrator, os.Stdout)
	case *cli.CreateProjectCommand:
		return c.Run(ctx, app.Containers, os.Stdout)
	case *cli.HistoryCommand:
		return c.Run(ctx, app.Runs, os.Stdout)
	}
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve           Run the task queue, scheduler and HTTP API (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  import          Import a workstation directory into a Project or Dataset\n")
	fmt.Fprintf(os.Stderr, "  create-project  Create a Project to import into\n")
	fmt.Fprintf(os.Stderr, "  history         Show recent import runs\n")
	fmt.Fprintf(os.Stderr, "\nConfiguration is read from the environment and an optional .env file.\n")
	fmt.Fprintf(os.Stderr, "Use '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
