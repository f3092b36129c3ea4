// Package database provides the data access layer for the importer.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── containers/      # Project/Dataset catalogue and attachments (remote.Store)
//	└── runs/            # Import run history
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./remote-import.db")
//
//	store := containers.NewRepository(db.DB, "./attachments")
//	history := runs.NewRepository(db.DB)
//
// # Interface Implementations
//
//   - containers.Repository: implements remote.Store
//   - runs.Repository: implements orchestrator.ReportSink, http.RunStore
//     and tasks.RunHistoryCleaner
package database
