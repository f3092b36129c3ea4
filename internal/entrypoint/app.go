package entrypoint

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mrlokans/remote-import/internal/audit"
	"github.com/mrlokans/remote-import/internal/config"
	"github.com/mrlokans/remote-import/internal/database"
	"github.com/mrlokans/remote-import/internal/database/containers"
	"github.com/mrlokans/remote-import/internal/database/runs"
	"github.com/mrlokans/remote-import/internal/entities"
	"github.com/mrlokans/remote-import/internal/importers"
	"github.com/mrlokans/remote-import/internal/orchestrator"
	"github.com/mrlokans/remote-import/internal/staging"
)

// App holds the components shared by every command.
type App struct {
	Config       *config.Config
	DB           *database.Database
	Containers   *containers.Repository
	Runs         *runs.Repository
	Auditor      *audit.Auditor
	Orchestrator *orchestrator.Orchestrator
	Logger       *slog.Logger
}

// NewApp opens the catalogue and wires the orchestrator to the import client.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	store := containers.NewRepository(db.DB, cfg.Database.AttachmentDir)
	history := runs.NewRepository(db.DB)
	auditor := audit.NewAuditor(cfg.Audit.Dir)

	invoker := importers.NewCLIInvoker(InvokerOptions(cfg), store, logger)
	orch := orchestrator.New(OrchestratorOptions(cfg), store, invoker, logger, auditor, history)

	return &App{
		Config:       cfg,
		DB:           db,
		Containers:   store,
		Runs:         history,
		Auditor:      auditor,
		Orchestrator: orch,
		Logger:       logger,
	}, nil
}

func (a *App) Close() error {
	return a.DB.Close()
}

// OrchestratorOptions maps the importer settings onto orchestrator.Options.
func OrchestratorOptions(cfg *config.Config) orchestrator.Options {
	return orchestrator.Options{
		MountPath:        cfg.Importer.MountPath,
		Workstations:     cfg.Importer.Workstations,
		DatasetSeparator: cfg.Importer.DatasetSeparator,
		DatasetDepth:     cfg.Importer.DatasetDepth,
		StagingEnabled:   cfg.Staging.Enabled,
		Staging: staging.Options{
			DataPath: cfg.Staging.DataPath,
			Fanout:   cfg.Staging.Fanout,
			Workers:  cfg.Staging.Workers,
		},
		KeepAliveInterval: cfg.Session.KeepAliveInterval,
	}
}

// InvokerOptions maps the importer settings onto the import client options.
func InvokerOptions(cfg *config.Config) importers.CLIOptions {
	return importers.CLIOptions{
		Binary:          cfg.Importer.Binary,
		InPlace:         cfg.Importer.InPlace,
		ParallelFileset: cfg.Importer.ParallelFileset,
		ParallelUpload:  cfg.Importer.ParallelUpload,
		StagingEnabled:  cfg.Staging.Enabled,
	}
}

// ScheduledParams builds the parameters of the unattended nightly run.
func ScheduledParams(s config.Schedule) (entities.RunParams, error) {
	var errs []error
	if strings.TrimSpace(s.Workstation) == "" {
		errs = append(errs, errors.New("IMPORT_SCHEDULE_WORKSTATION must be set"))
	}
	if strings.TrimSpace(s.Owner) == "" {
		errs = append(errs, errors.New("IMPORT_SCHEDULE_OWNER must be set"))
	}
	if s.DestinationID == 0 {
		errs = append(errs, errors.New("IMPORT_SCHEDULE_DESTINATION_ID must be set"))
	}
	kind, err := entities.ParseContainerKind(s.DestinationKind)
	if err != nil {
		errs = append(errs, fmt.Errorf("IMPORT_SCHEDULE_DESTINATION_KIND: %w", err))
	}
	if len(errs) > 0 {
		return entities.RunParams{}, errors.Join(errs...)
	}

	return entities.RunParams{
		Workstation:     s.Workstation,
		DestinationKind: kind,
		DestinationID:   s.DestinationID,
		SkipExisting:    s.SkipExisting,
		Owner:           entities.Owner{Name: s.Owner, ID: s.OwnerID},
	}, nil
}
