// Package cron runs wall-clock background jobs, such as the daily eviction
// of the problem-of-the-day cache, on a robfig/cron scheduler bound to a
// named timezone.
package cron

import "context"

// Job is a task fired by the Scheduler on a cron expression.
type Job interface {
	// Name identifies the job in logs and must be unique per scheduler.
	Name() string

	// Schedule is a standard 5-field expression, such as "30 5 * * *",
	// read in the scheduler's location rather than UTC.
	Schedule() string

	// Run performs one firing. ctx is cancelled when the scheduler stops.
	Run(ctx context.Context) error
}
