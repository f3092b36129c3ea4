package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Importer
		Staging
		Session
		Schedule
		Audit
		Global
		Database
		Logging
		Tasks
	}

	HTTP struct {
		Port int32
		Host string
	}
	Importer struct {
		MountPath        string   // Root of the per-workstation source trees
		Workstations     []string // Accepted workstation names
		Binary           string   // Import client executable
		InPlace          bool     // Link files instead of uploading them
		DatasetDepth     int      // Scan depth when importing into a Dataset
		DatasetSeparator string   // Joins nested directory names into dataset names
		ParallelFileset  int
		ParallelUpload   int
	}
	Staging struct {
		Enabled  bool // Copy sources into DataPath before importing
		DataPath string
		Fanout   bool
		Workers  int
	}
	Session struct {
		KeepAliveInterval time.Duration // 0 disables keep-alive
	}
	Schedule struct {
		Enabled         bool
		Cron            string // Cron format: "0 2 * * *" = nightly at 02:00
		Workstation     string
		DestinationKind string
		DestinationID   uint
		Owner           string
		OwnerID         int64
		SkipExisting    bool
	}
	Audit struct {
		Dir string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path          string
		AttachmentDir string
	}
	Logging struct {
		File  string
		Level slog.Level
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("attachment_dir", DefaultAttachmentDir)
	v.SetDefault("audit_dir", "./audit")
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", "info")

	// Importer defaults
	v.SetDefault("mount_path", DefaultMountPath)
	v.SetDefault("workstations", DefaultWorkstations)
	v.SetDefault("import_binary", "omero")
	v.SetDefault("inplace_import", true)
	v.SetDefault("dataset_depth", DefaultDatasetDepth)
	v.SetDefault("dataset_separator", "_")
	v.SetDefault("import_parallel_fileset", 2)
	v.SetDefault("import_parallel_upload", 2)

	// Staging defaults
	v.SetDefault("copy_sources", true)
	v.SetDefault("data_path", DefaultDataPath)
	v.SetDefault("staging_fanout", false)
	v.SetDefault("staging_workers", 4)

	v.SetDefault("keepalive_interval", "60s")

	// Scheduled import defaults
	v.SetDefault("import_schedule_enabled", false)
	v.SetDefault("import_schedule", "0 2 * * *") // Nightly at 02:00
	v.SetDefault("import_schedule_workstation", "")
	v.SetDefault("import_schedule_destination_kind", "Project")
	v.SetDefault("import_schedule_destination_id", 0)
	v.SetDefault("import_schedule_owner", "")
	v.SetDefault("import_schedule_owner_id", 0)
	v.SetDefault("import_schedule_skip_existing", true)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "13h")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "168h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Importer: Importer{
			MountPath:        v.GetString("MOUNT_PATH"),
			Workstations:     splitList(v.GetString("WORKSTATIONS")),
			Binary:           v.GetString("IMPORT_BINARY"),
			InPlace:          v.GetBool("INPLACE_IMPORT"),
			DatasetDepth:     v.GetInt("DATASET_DEPTH"),
			DatasetSeparator: v.GetString("DATASET_SEPARATOR"),
			ParallelFileset:  v.GetInt("IMPORT_PARALLEL_FILESET"),
			ParallelUpload:   v.GetInt("IMPORT_PARALLEL_UPLOAD"),
		},
		Staging: Staging{
			Enabled:  v.GetBool("COPY_SOURCES"),
			DataPath: v.GetString("DATA_PATH"),
			Fanout:   v.GetBool("STAGING_FANOUT"),
			Workers:  v.GetInt("STAGING_WORKERS"),
		},
		Session: Session{
			KeepAliveInterval: v.GetDuration("KEEPALIVE_INTERVAL"),
		},
		Schedule: Schedule{
			Enabled:         v.GetBool("IMPORT_SCHEDULE_ENABLED"),
			Cron:            v.GetString("IMPORT_SCHEDULE"),
			Workstation:     v.GetString("IMPORT_SCHEDULE_WORKSTATION"),
			DestinationKind: v.GetString("IMPORT_SCHEDULE_DESTINATION_KIND"),
			DestinationID:   v.GetUint("IMPORT_SCHEDULE_DESTINATION_ID"),
			Owner:           v.GetString("IMPORT_SCHEDULE_OWNER"),
			OwnerID:         v.GetInt64("IMPORT_SCHEDULE_OWNER_ID"),
			SkipExisting:    v.GetBool("IMPORT_SCHEDULE_SKIP_EXISTING"),
		},
		Audit: Audit{
			Dir: v.GetString("AUDIT_DIR"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path:          v.GetString("DATABASE_PATH"),
			AttachmentDir: v.GetString("ATTACHMENT_DIR"),
		},
		Logging: Logging{
			File:  v.GetString("LOG_FILE"),
			Level: parseLevel(v.GetString("LOG_LEVEL")),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
	}
}

// Validate checks the settings every run depends on.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Importer.MountPath) == "" {
		errs = append(errs, errors.New("MOUNT_PATH must not be empty"))
	}
	if len(c.Importer.Workstations) == 0 {
		errs = append(errs, errors.New("WORKSTATIONS must list at least one workstation"))
	}
	if c.Importer.Binary == "" {
		errs = append(errs, errors.New("IMPORT_BINARY must not be empty"))
	}
	if c.Importer.DatasetDepth < 1 {
		errs = append(errs, fmt.Errorf("DATASET_DEPTH must be at least 1, got %d", c.Importer.DatasetDepth))
	}
	if c.Importer.DatasetSeparator == "" {
		errs = append(errs, errors.New("DATASET_SEPARATOR must not be empty"))
	}
	if c.Importer.ParallelFileset < 1 || c.Importer.ParallelUpload < 1 {
		errs = append(errs, errors.New("IMPORT_PARALLEL_FILESET and IMPORT_PARALLEL_UPLOAD must be at least 1"))
	}
	if c.Staging.Enabled && strings.TrimSpace(c.Staging.DataPath) == "" {
		errs = append(errs, errors.New("DATA_PATH must be set when COPY_SOURCES is enabled"))
	}
	if c.Staging.Workers < 1 {
		errs = append(errs, fmt.Errorf("STAGING_WORKERS must be at least 1, got %d", c.Staging.Workers))
	}
	if c.Session.KeepAliveInterval < 0 {
		errs = append(errs, errors.New("KEEPALIVE_INTERVAL must not be negative"))
	}
	return errors.Join(errs...)
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo
	}
	return level
}
