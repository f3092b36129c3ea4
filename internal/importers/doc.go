// Package importers drives the external import client and interprets its
// results.
//
// # Flow
//
// For every import job the orchestrator runs:
//
//	Invoker.Invoke → ParseLog → Classify → Linker.Attach → Retrier.Retry
//
// The import client writes one diagnostics line per file. Two markers matter:
//
//	IMPORT_DONE Imported file: <path>      the file was imported
//	ClientPath match for filename: <path>  the file already existed and was skipped
//
// Files in the job directory that appear under neither marker are sorted into
// retryable files (their extension is known to import) and other files
// (probably not images). Retryable files are re-imported one at a time.
//
// # Failure Policy
//
// Nothing in this package returns an error for a failed import. A client that
// cannot start, exits non-zero or leaves an unreadable log yields an empty
// LogOutcome, and the per-file bookkeeping downstream reports the damage.
//
// # Example Usage
//
//	invoker := importers.NewCLIInvoker(importers.CLIOptions{
//		Binary:          "omero",
//		InPlace:         true,
//		ParallelFileset: 2,
//		ParallelUpload:  2,
//	}, store, logger)
//
//	outcome := invoker.Invoke(ctx, importers.InvokeRequest{
//		Path:          "/Importer/cn-imaris/alice/exp1",
//		DestinationID: 42,
//		Depth:         1,
//	})
//	result, err := importers.Classify(logger, outcome, "/Importer/cn-imaris/alice/exp1")
package importers
