package tasks

import "time"

// Config holds configuration for the task queue.
type Config struct {
	// Workers is the number of concurrent runs. Default: 1
	Workers int

	// ReleaseAfter is when a stuck run is released back to the queue. It must
	// exceed the longest expected import. Default: 13h
	ReleaseAfter time.Duration

	// CleanupInterval is how often finished tasks are purged. Default: 1h
	CleanupInterval time.Duration

	// RetentionDuration is how long run history is kept. Default: 168h
	RetentionDuration time.Duration
}

// DefaultConfig returns a Config suited to one import at a time.
func DefaultConfig() Config {
	return Config{
		Workers:           1,
		ReleaseAfter:      13 * time.Hour,
		CleanupInterval:   time.Hour,
		RetentionDuration: 7 * 24 * time.Hour,
	}
}
