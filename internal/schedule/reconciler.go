package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Rajat069/leetcode-reminder-bot/internal/metrics"
	"github.com/Rajat069/leetcode-reminder-bot/internal/timeofday"
	"github.com/Rajat069/leetcode-reminder-bot/pkg/potd"
)

// UserSource returns the current set of registered, active users.
type UserSource interface {
	FetchUsers(ctx context.Context) ([]potd.User, error)
}

// EmptyPolicy decides what a reconciliation does with an empty user list.
type EmptyPolicy string

const (
	// EmptyKeep keeps the previously applied schedule.
	EmptyKeep EmptyPolicy = "keep"
	// EmptyClear treats the empty list as the desired state and clears all jobs.
	EmptyClear EmptyPolicy = "clear"
)

// Valid reports whether p is a known policy.
func (p EmptyPolicy) Valid() bool {
	return p == EmptyKeep || p == EmptyClear
}

// Skip reasons reported in Result.Skipped.
const (
	SkipUnchanged = "unchanged"
	SkipEmpty     = "empty_user_list"
)

// Snapshot maps a user ID to its set of canonical "HH:MM" reminder times.
type Snapshot map[string]map[string]struct{}

// SnapshotOf builds the desired schedule state from users. Invalid times
// are dropped and reported through invalid.
func SnapshotOf(users []potd.User) (snap Snapshot, invalid []error) {
	snap = make(Snapshot, len(users))
	for _, u := range users {
		set, ok := snap[u.ID]
		if !ok {
			set = make(map[string]struct{}, len(u.ReminderTimes))
			snap[u.ID] = set
		}
		for _, raw := range u.ReminderTimes {
			canon, err := timeofday.Canonical(raw)
			if err != nil {
				invalid = append(invalid, fmt.Errorf("user %q: %w", u.ID, err))
				continue
			}
			set[canon] = struct{}{}
		}
	}
	return snap, invalid
}

// Equal reports whether s and o describe the same per-user time sets.
func (s Snapshot) Equal(o Snapshot) bool {
	return maps.EqualFunc(s, o, func(a, b map[string]struct{}) bool {
		return maps.Equal(a, b)
	})
}

// Result describes the effect of a single reconciliation.
type Result struct {
	Rebuilt bool   `json:"rebuilt"`
	Jobs    int    `json:"jobs"`
	Users   int    `json:"users"`
	Skipped string `json:"skipped,omitempty"`
}

// ReconcilerConfig configures a Reconciler.
type ReconcilerConfig struct {
	Scheduler   *Scheduler
	Source      UserSource
	Handler     Handler
	EmptyPolicy EmptyPolicy // default EmptyKeep
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// Reconciler rebuilds the job registry whenever the per-user reminder
// times reported by the user source differ from the last applied state.
// Any difference triggers a full clear and rebuild.
type Reconciler struct {
	scheduler *Scheduler
	source    UserSource
	handler   Handler
	metrics   *metrics.Metrics
	logger    *slog.Logger

	mu      sync.RWMutex
	policy  EmptyPolicy
	applied Snapshot
	users   map[string]potd.User
}

// NewReconciler validates cfg and returns a Reconciler with an empty
// applied state, so the first Reconcile always rebuilds.
func NewReconciler(cfg ReconcilerConfig) (*Reconciler, error) {
	if cfg.Scheduler == nil {
		return nil, errors.New("schedule: nil Scheduler")
	}
	if cfg.Source == nil {
		return nil, errors.New("schedule: nil UserSource")
	}
	if cfg.Handler == nil {
		return nil, errors.New("schedule: nil Handler")
	}
	if cfg.EmptyPolicy == "" {
		cfg.EmptyPolicy = EmptyKeep
	}
	if !cfg.EmptyPolicy.Valid() {
		return nil, fmt.Errorf("schedule: unknown empty policy %q", cfg.EmptyPolicy)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Reconciler{
		scheduler: cfg.Scheduler,
		source:    cfg.Source,
		handler:   cfg.Handler,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		policy:    cfg.EmptyPolicy,
		users:     make(map[string]potd.User),
	}, nil
}

// SetEmptyPolicy changes the empty-list policy for subsequent reconciliations.
func (r *Reconciler) SetEmptyPolicy(p EmptyPolicy) error {
	if !p.Valid() {
		return fmt.Errorf("schedule: unknown empty policy %q", p)
	}
	r.mu.Lock()
	r.policy = p
	r.mu.Unlock()
	return nil
}

// Lookup returns the most recently fetched record for userID.
func (r *Reconciler) Lookup(userID string) (potd.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[userID]
	return u, ok
}

// Users returns the most recently fetched user records.
func (r *Reconciler) Users() []potd.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]potd.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out
}

// Reconcile fetches users and rebuilds the schedule if the desired state
// changed. A fetch error leaves the schedule untouched and is returned.
// It must not run concurrently with Scheduler.RunPending.
func (r *Reconciler) Reconcile(ctx context.Context) (res Result, err error) {
	ctx, span := otel.Tracer("reminderbot/schedule").Start(ctx, "schedule.Reconcile")
	defer func() {
		span.SetAttributes(
			attribute.Bool("rebuilt", res.Rebuilt),
			attribute.Int("jobs", res.Jobs),
			attribute.Int("users", res.Users),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	users, err := r.source.FetchUsers(ctx)
	if err != nil {
		r.metrics.RecordReconcile(metrics.ReconcileError)
		r.logger.Warn("schedule: user fetch failed, keeping current schedule", "error", err)
		return Result{Jobs: r.scheduler.Len()}, fmt.Errorf("schedule: fetching users: %w", err)
	}

	r.mu.Lock()
	policy := r.policy
	r.mu.Unlock()

	if len(users) == 0 {
		r.logger.Warn("schedule: user source returned no users", "policy", string(policy))
		if policy == EmptyKeep {
			r.metrics.RecordReconcile(metrics.ReconcileSkipped)
			return Result{Jobs: r.scheduler.Len(), Skipped: SkipEmpty}, nil
		}
	}

	// A non-empty response whose users are all paused is a real desired
	// state, not an outage, so it clears the schedule under either policy.
	active := potd.ActiveUsers(users)
	if paused := len(users) - len(active); paused > 0 {
		r.logger.Debug("schedule: skipping paused users", "paused", paused, "active", len(active))
	}
	users = active

	r.setUsers(users)

	desired, invalid := SnapshotOf(users)
	for _, e := range invalid {
		r.logger.Warn("schedule: ignoring invalid reminder time", "error", e)
	}

	r.mu.RLock()
	unchanged := r.applied != nil && desired.Equal(r.applied)
	r.mu.RUnlock()
	if unchanged {
		r.metrics.RecordReconcile(metrics.ReconcileUnchanged)
		r.logger.Debug("schedule: no changes detected", "users", len(users))
		return Result{Jobs: r.scheduler.Len(), Users: len(users), Skipped: SkipUnchanged}, nil
	}

	jobs := r.rebuild(users)

	r.mu.Lock()
	r.applied = desired
	r.mu.Unlock()

	r.metrics.RecordReconcile(metrics.ReconcileRebuilt)
	r.metrics.SetScheduledJobs(jobs)
	r.logger.Info("schedule: rebuilt", "users", len(users), "jobs", jobs)
	return Result{Rebuilt: true, Jobs: jobs, Users: len(users)}, nil
}

// rebuild clears the scheduler and registers one job per distinct
// (user, time) pair, in user order then reminder-time order. A pair that
// was already registered keeps its pending run, so a job that fell due
// just before the rebuild is not pushed to the next day.
func (r *Reconciler) rebuild(users []potd.User) int {
	pending := r.scheduler.nextRuns()
	r.scheduler.Clear()

	seen := make(map[[2]string]struct{})
	for _, u := range users {
		for _, raw := range u.ReminderTimes {
			canon, err := timeofday.Canonical(raw)
			if err != nil {
				continue
			}
			key := [2]string{u.ID, canon}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			if err := r.scheduler.scheduleAt(canon, r.handler, u.ID, pending[jobKey{u.ID, canon}]); err != nil {
				r.logger.Error("schedule: registering job", "user", u.ID, "time", canon, "error", err)
				continue
			}
			r.logger.Debug("schedule: registered job", "user", u.ID, "username", u.Username, "time", canon)
		}
	}
	return r.scheduler.Len()
}

func (r *Reconciler) setUsers(users []potd.User) {
	dir := make(map[string]potd.User, len(users))
	for _, u := range users {
		dir[u.ID] = u
	}
	r.mu.Lock()
	r.users = dir
	r.mu.Unlock()
}
