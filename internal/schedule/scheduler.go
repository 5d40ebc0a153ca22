// Package schedule keeps per-user reminder jobs in step with the user
// registry. A Scheduler holds the (time of day, user) job registry, a
// Reconciler rebuilds it when the desired state changes, and a Loop drives
// both from a single polling goroutine.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/Rajat069/leetcode-reminder-bot/internal/timeofday"
)

// Handler runs a reminder job for a single user.
type Handler func(ctx context.Context, userID string) error

// Job is a registered reminder. TimeOfDay is a UTC wall-clock time.
type Job struct {
	TimeOfDay timeofday.TimeOfDay
	UserID    string

	handler Handler
	nextRun time.Time
}

// JobInfo is a read-only view of a registered job.
type JobInfo struct {
	TimeOfDay string    `json:"time_of_day"`
	UserID    string    `json:"user_id"`
	NextRun   time.Time `json:"next_run"`
}

// Scheduler is a registry of daily UTC reminder jobs. It does not own a
// goroutine: RunPending must be called periodically by a polling loop.
// Multiple jobs may share a time of day; they run in registration order.
type Scheduler struct {
	mu     sync.Mutex
	jobs   []*Job
	now    func() time.Time
	logger *slog.Logger
}

// NewScheduler creates an empty scheduler. now defaults to time.Now.
func NewScheduler(logger *slog.Logger, now func() time.Time) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		now:    now,
		logger: logger,
	}
}

// Schedule registers h to run for userID every day at timeOfDay (UTC).
// The first run is the next occurrence strictly after the current time.
func (s *Scheduler) Schedule(timeOfDay string, h Handler, userID string) error {
	return s.scheduleAt(timeOfDay, h, userID, time.Time{})
}

// scheduleAt is Schedule with an explicit first run. A zero next means the
// next occurrence strictly after the current time.
func (s *Scheduler) scheduleAt(timeOfDay string, h Handler, userID string, next time.Time) error {
	tod, err := timeofday.Parse(timeOfDay)
	if err != nil {
		return fmt.Errorf("schedule: user %q: %w", userID, err)
	}
	if h == nil {
		return fmt.Errorf("schedule: user %q: nil handler", userID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if next.IsZero() {
		next = tod.Next(s.now().UTC(), time.UTC)
	}
	s.jobs = append(s.jobs, &Job{
		TimeOfDay: tod,
		UserID:    userID,
		handler:   h,
		nextRun:   next,
	})
	return nil
}

// jobKey identifies a job by user and canonical time of day.
type jobKey struct {
	userID string
	at     string
}

// nextRuns returns the pending run of every registered job.
func (s *Scheduler) nextRuns() map[jobKey]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[jobKey]time.Time, len(s.jobs))
	for _, j := range s.jobs {
		out[jobKey{j.UserID, j.TimeOfDay.String()}] = j.nextRun
	}
	return out
}

// Clear removes every registered job.
func (s *Scheduler) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = nil
}

// Len returns the number of registered jobs.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Jobs returns a snapshot of the registered jobs in registration order.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobInfo, len(s.jobs))
	for i, j := range s.jobs {
		out[i] = JobInfo{
			TimeOfDay: j.TimeOfDay.String(),
			UserID:    j.UserID,
			NextRun:   j.nextRun,
		}
	}
	return out
}

// RunPending runs, in registration order, every job whose next run is at
// or before now. Each due job runs at most once per call and is then moved
// to its next daily occurrence after now. A failing or panicking handler is
// logged and does not stop the remaining handlers. Handlers get a context
// that survives cancellation of ctx, so a running handler completes, but
// once ctx is done no further handler starts and the rest stay due.
// Returns the number of handlers invoked.
func (s *Scheduler) RunPending(ctx context.Context, now time.Time) int {
	now = now.UTC()

	s.mu.Lock()
	var due []*Job
	for _, j := range s.jobs {
		if !j.nextRun.After(now) {
			due = append(due, j)
		}
	}
	s.mu.Unlock()

	hctx := context.WithoutCancel(ctx)
	for i, j := range due {
		if ctx.Err() != nil {
			s.logger.Warn("schedule: stopping dispatch, leaving due jobs pending", "skipped", len(due)-i)
			return i
		}
		s.mu.Lock()
		j.nextRun = j.TimeOfDay.Next(now, time.UTC)
		s.mu.Unlock()
		s.run(hctx, j)
	}
	return len(due)
}

func (s *Scheduler) run(ctx context.Context, j *Job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("schedule: job panicked",
				"user", j.UserID,
				"time", j.TimeOfDay.String(),
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()

	s.logger.Info("schedule: running job", "user", j.UserID, "time", j.TimeOfDay.String())
	if err := j.handler(ctx, j.UserID); err != nil {
		s.logger.Error("schedule: job failed",
			"user", j.UserID,
			"time", j.TimeOfDay.String(),
			"error", err,
		)
	}
}
