// Package orchestrator runs a complete import for one workstation and user:
// it validates the request, locates and optionally stages the source, maps
// it to destination datasets and imports every job in order.
//
// Only configuration problems (bad parameters, missing target, staging or
// mapping failures) are returned as errors. Everything that goes wrong while
// importing is folded into the RunReport.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/remote-import/internal/entities"
	"github.com/mrlokans/remote-import/internal/importers"
	"github.com/mrlokans/remote-import/internal/mapper"
	"github.com/mrlokans/remote-import/internal/remote"
	"github.com/mrlokans/remote-import/internal/session"
	"github.com/mrlokans/remote-import/internal/staging"
)

// Options is the validated importer configuration.
type Options struct {
	MountPath         string
	Workstations      []string
	DatasetSeparator  string
	DatasetDepth      int
	StagingEnabled    bool
	Staging           staging.Options
	KeepAliveInterval time.Duration
}

// ReportSink receives every finished run report.
//
// Implementations:
//   - audit.Auditor (internal/audit) - JSON activity reports
//   - runs.Repository (internal/database/runs) - run history table
type ReportSink interface {
	Record(ctx context.Context, params entities.RunParams, report *entities.RunReport) error
}

type Orchestrator struct {
	opts    Options
	store   remote.Store
	invoker importers.Invoker
	mapper  *mapper.Mapper
	stager  *staging.Stager
	keeper  *session.Keeper
	retrier *importers.Retrier
	linker  *importers.Linker
	sinks   []ReportSink
	logger  *slog.Logger
}

func New(opts Options, store remote.Store, invoker importers.Invoker, logger *slog.Logger, sinks ...ReportSink) *Orchestrator {
	return &Orchestrator{
		opts:    opts,
		store:   store,
		invoker: invoker,
		mapper:  mapper.NewMapper(store, opts.DatasetSeparator, opts.DatasetDepth, logger),
		stager:  staging.NewStager(opts.Staging, logger),
		keeper:  session.NewKeeper(store, opts.KeepAliveInterval, logger),
		retrier: importers.NewRetrier(invoker, logger),
		linker:  importers.NewLinker(store, logger),
		sinks:   sinks,
		logger:  logger,
	}
}

// Run executes one import run.
func (o *Orchestrator) Run(ctx context.Context, params entities.RunParams) (*entities.RunReport, error) {
	if err := o.validate(params); err != nil {
		return nil, err
	}

	report := &entities.RunReport{
		RunID:       uuid.New().String(),
		Workstation: params.Workstation,
		StartedAt:   time.Now(),
	}
	logger := o.logger.With("run_id", report.RunID, "workstation", params.Workstation)

	target, err := o.resolveTarget(ctx, params)
	if err != nil {
		return nil, err
	}

	sourcePath, status, message := ResolveSource(o.opts.MountPath, params.Workstation, params.Owner.Name)
	if status != SourceAvailable {
		logger.Warn("no source data", "reason", message)
		report.Status = entities.RunStatusNoData
		report.Message = message
		return o.finish(ctx, params, report), nil
	}
	report.SourcePath = sourcePath

	stop := o.keeper.Start(ctx)
	defer stop()

	importRoot := sourcePath
	if o.opts.StagingEnabled {
		importRoot, err = o.stager.Stage(ctx, sourcePath, params.Owner)
		if err != nil {
			return nil, err
		}
		report.StagingPath = importRoot
	}

	plan, err := o.mapper.Map(ctx, importRoot, target, params.Workstation)
	if err != nil {
		return nil, err
	}
	logger.Info("import plan ready", "jobs", len(plan.Jobs), "depth", plan.Depth)

	var transcripts []string
	for _, job := range plan.Jobs {
		if ctx.Err() != nil {
			logger.Warn("run cancelled, remaining jobs not imported", "error", ctx.Err())
			break
		}
		if transcript, ok := o.runJob(ctx, logger, params, job, plan.Depth, report); ok {
			report.JobCount++
			if transcript != "" {
				transcripts = append(transcripts, transcript)
			}
		}
	}
	report.RetryTranscript = strings.Join(transcripts, "")

	finalize(report)
	return o.finish(ctx, params, report), nil
}

// runJob imports one directory and folds the results into report. It
// reports false when the job's dataset could not be verified; the job's
// directory is then listed in report.Failed.
func (o *Orchestrator) runJob(ctx context.Context, logger *slog.Logger, params entities.RunParams, job entities.ImportJob, depth int, report *entities.RunReport) (string, bool) {
	logger = logger.With("path", job.SourcePath, "dataset_id", job.DestinationID)

	if _, err := o.store.Resolve(ctx, entities.ContainerKindDataset, job.DestinationID); err != nil {
		logger.Error("destination dataset unavailable, skipping job", "error", err)
		report.Failed = append(report.Failed, job.SourcePath)
		return "", false
	}

	logTarget := job.DestinationID
	outcome := o.invoker.Invoke(ctx, importers.InvokeRequest{
		Path:          job.SourcePath,
		DestinationID: job.DestinationID,
		SkipExisting:  params.SkipExisting,
		Depth:         depth,
		LogTarget:     &logTarget,
		LogNamespace:  params.Workstation,
	})

	classified, err := importers.Classify(logger, outcome, job.SourcePath)
	if err != nil {
		logger.Error("failed to classify import results", "error", err)
		classified = entities.ClassificationResult{}
	}

	if params.AttachFiles {
		o.attach(ctx, logger, params, job, depth)
	}

	retried := o.retrier.Retry(ctx, job.DestinationID, classified.Retryable, params.SkipExisting)

	report.ImportedCount += len(outcome.Imported) + retried.RecoveredImported
	report.Skipped = append(report.Skipped, outcome.Skipped...)
	report.Skipped = append(report.Skipped, retried.RecoveredSkipped...)
	report.Failed = append(report.Failed, retried.StillFailed...)
	report.Unrecognized = append(report.Unrecognized, classified.Other...)

	logger.Info("job finished",
		"imported", len(outcome.Imported)+retried.RecoveredImported,
		"skipped", len(outcome.Skipped)+len(retried.RecoveredSkipped),
		"failed", len(retried.StillFailed),
		"non_image", len(classified.Other))
	return retried.Transcript, true
}

func (o *Orchestrator) attach(ctx context.Context, logger *slog.Logger, params entities.RunParams, job entities.ImportJob, depth int) {
	destination := job.DestinationID
	if params.AttachKind == entities.ContainerKindProject {
		parent, err := o.store.Parent(ctx, job.DestinationID)
		if err != nil {
			logger.Error("cannot attach files: dataset has no project", "error", err)
			return
		}
		destination = parent.ID
	}
	o.linker.Attach(ctx, destination, params.AttachFilter, job.SourcePath, depth, params.Workstation)
}

func (o *Orchestrator) validate(params entities.RunParams) error {
	var problems []string
	if !contains(o.opts.Workstations, params.Workstation) {
		problems = append(problems, fmt.Sprintf("unknown workstation %q", params.Workstation))
	}
	if !validKind(params.DestinationKind) {
		problems = append(problems, fmt.Sprintf("destination kind must be Project or Dataset, got %q", params.DestinationKind))
	}
	if params.DestinationID == 0 {
		problems = append(problems, "destination id is required")
	}
	if params.AttachFiles && !validKind(params.AttachKind) {
		problems = append(problems, fmt.Sprintf("attach kind must be Project or Dataset, got %q", params.AttachKind))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidParams, strings.Join(problems, "; "))
	}
	return nil
}

func (o *Orchestrator) resolveTarget(ctx context.Context, params entities.RunParams) (entities.ImportTarget, error) {
	container, err := o.store.Resolve(ctx, params.DestinationKind, params.DestinationID)
	if errors.Is(err, remote.ErrNotFound) || errors.Is(err, remote.ErrKindMismatch) {
		return entities.ImportTarget{}, fmt.Errorf("%w: %s %d: %w", ErrTargetNotFound, params.DestinationKind, params.DestinationID, err)
	}
	if err != nil {
		return entities.ImportTarget{}, fmt.Errorf("resolve %s %d: %w", params.DestinationKind, params.DestinationID, err)
	}
	return entities.ImportTarget{ID: container.ID, Kind: container.Kind, Handle: container}, nil
}

func (o *Orchestrator) finish(ctx context.Context, params entities.RunParams, report *entities.RunReport) *entities.RunReport {
	report.FinishedAt = time.Now()
	o.logger.Info("run finished",
		"run_id", report.RunID,
		"status", report.Status,
		"imported", report.ImportedCount,
		"skipped", len(report.Skipped),
		"failed", len(report.Failed),
		"duration", report.Duration().Round(time.Millisecond))

	for _, sink := range o.sinks {
		if err := sink.Record(context.WithoutCancel(ctx), params, report); err != nil {
			o.logger.Error("failed to record run report", "run_id", report.RunID, "error", err)
		}
	}
	return report
}

func finalize(report *entities.RunReport) {
	switch {
	case len(report.Failed) > 0:
		report.Status = entities.RunStatusCompletedWithFailures
		report.Message = fmt.Sprintf("ATTENTION: there are failed imports (%d), please check the run log or the log attached to the dataset", len(report.Failed))
	case report.JobCount == 0:
		report.Status = entities.RunStatusNoImports
		report.Message = "No imports!"
	default:
		report.Status = entities.RunStatusCompleted
		report.Message = fmt.Sprintf("Imports finished: %d imported, %d skipped", report.ImportedCount, len(report.Skipped))
	}
}

func validKind(kind entities.ContainerKind) bool {
	return kind == entities.ContainerKindProject || kind == entities.ContainerKindDataset
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
