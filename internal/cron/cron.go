// Package cron provides a job scheduler for periodic background tasks such
// as purging expired key-value entries.
package cron

import "context"

// Job defines a periodic background task.
type Job interface {
	// Name returns a unique identifier for this job (used for logging
	// and dedup).
	Name() string

	// Schedule returns a cron expression ("0 * * * *", "@hourly").
	Schedule() string

	// Run executes the job. Implementations should check ctx.Done() for
	// graceful cancellation.
	Run(ctx context.Context) error
}
