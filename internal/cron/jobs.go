package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Rajat069/leetcode-reminder-bot/internal/timeofday"
)

// Evictor is the subset of the question cache needed by the eviction job.
type Evictor interface {
	EvictAll()
}

// CacheEvictionJob invalidates the problem-of-the-day cache once a day at
// the origin's release time. The time is interpreted in the scheduler's
// location, so At must be expressed in that zone.
type CacheEvictionJob struct {
	Cache  Evictor
	At     timeofday.TimeOfDay
	Logger *slog.Logger
}

// Compile-time interface check.
var _ Job = (*CacheEvictionJob)(nil)

// CacheEvictionJobName is the registered name of CacheEvictionJob.
const CacheEvictionJobName = "question_cache_eviction"

// Name implements Job.
func (j *CacheEvictionJob) Name() string { return CacheEvictionJobName }

// Schedule implements Job.
func (j *CacheEvictionJob) Schedule() string { return j.At.CronSpec() }

// Run evicts every cached entry unconditionally.
func (j *CacheEvictionJob) Run(ctx context.Context) error {
	if ctx.Err() != nil {
		return fmt.Errorf("cron: cache eviction cancelled: %w", ctx.Err())
	}
	j.Cache.EvictAll()
	if j.Logger != nil {
		j.Logger.Info("cron: question cache evicted", "at", j.At.String())
	}
	return nil
}

// HistoryPruner is the subset of the check history store needed by
// HistoryPruneJob.
type HistoryPruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// HistoryPruneJob deletes check records older than Retention.
type HistoryPruneJob struct {
	Store        HistoryPruner
	Retention    time.Duration
	Logger       *slog.Logger
	ScheduleExpr string           // empty = default "15 3 * * *"
	Now          func() time.Time // injectable for testing
}

// Compile-time interface check.
var _ Job = (*HistoryPruneJob)(nil)

// Name implements Job.
func (j *HistoryPruneJob) Name() string { return "history_prune" }

// Schedule implements Job.
func (j *HistoryPruneJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "15 3 * * *"
}

// Run removes records older than Retention. A non-positive Retention keeps
// everything.
func (j *HistoryPruneJob) Run(ctx context.Context) error {
	if j.Retention <= 0 {
		return nil
	}
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	pruned, err := j.Store.Prune(ctx, now().Add(-j.Retention))
	if err != nil {
		return fmt.Errorf("cron: pruning check history: %w", err)
	}
	if pruned > 0 && j.Logger != nil {
		j.Logger.Info("cron: pruned check history", "count", pruned, "retention", j.Retention)
	}
	return nil
}
