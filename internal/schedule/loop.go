package schedule

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"
)

// ErrAlreadyRunning is returned when Run is called on a loop that is running.
var ErrAlreadyRunning = errors.New("schedule: loop already running")

// LoopConfig holds polling loop configuration.
type LoopConfig struct {
	Tick              time.Duration // default 1s
	ReconcileInterval time.Duration // default 30m
	Logger            *slog.Logger
	Now               func() time.Time // injectable for testing

	// OnStart, if set, runs on the loop goroutine before the first tick,
	// so it never overlaps scheduled dispatch.
	OnStart func(ctx context.Context)
}

func (c LoopConfig) withDefaults() LoopConfig {
	if c.Tick <= 0 {
		c.Tick = time.Second
	}
	if c.ReconcileInterval <= 0 {
		c.ReconcileInterval = 30 * time.Minute
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Loop drives a Scheduler and its Reconciler from one goroutine. Each tick
// runs pending jobs, then reconciles when the reconcile interval has
// elapsed, so the two never touch schedule state concurrently and a rebuild
// never lands between a job falling due and its dispatch.
type Loop struct {
	cfg        LoopConfig
	scheduler  *Scheduler
	reconciler *Reconciler

	interval      atomic.Int64 // reconcile interval, nanoseconds
	lastReconcile time.Time
	force         chan struct{}
	running       atomic.Bool
}

// NewLoop creates a polling loop. The first tick always reconciles.
func NewLoop(cfg LoopConfig, scheduler *Scheduler, reconciler *Reconciler) (*Loop, error) {
	if scheduler == nil {
		return nil, errors.New("schedule: nil Scheduler")
	}
	if reconciler == nil {
		return nil, errors.New("schedule: nil Reconciler")
	}

	cfg = cfg.withDefaults()
	l := &Loop{
		cfg:        cfg,
		scheduler:  scheduler,
		reconciler: reconciler,
		force:      make(chan struct{}, 1),
	}
	l.interval.Store(int64(cfg.ReconcileInterval))
	return l, nil
}

// SetReconcileInterval changes the reconcile cadence. Non-positive values are ignored.
func (l *Loop) SetReconcileInterval(d time.Duration) {
	if d > 0 {
		l.interval.Store(int64(d))
	}
}

// ReconcileInterval returns the current reconcile cadence.
func (l *Loop) ReconcileInterval() time.Duration {
	return time.Duration(l.interval.Load())
}

// ForceReconcile asks the loop to reconcile on its goroutine as soon as
// possible. Requests made while one is pending are coalesced.
func (l *Loop) ForceReconcile() {
	select {
	case l.force <- struct{}{}:
	default:
	}
}

// Running reports whether Run is active.
func (l *Loop) Running() bool {
	return l.running.Load()
}

// Run ticks until ctx is cancelled. A handler already running when ctx is
// cancelled completes; no further handler or tick starts.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)

	ticker := time.NewTicker(l.cfg.Tick)
	defer ticker.Stop()

	l.cfg.Logger.Info("schedule: loop started",
		"tick", l.cfg.Tick,
		"reconcile_interval", l.ReconcileInterval(),
	)
	if l.cfg.OnStart != nil {
		l.cfg.OnStart(ctx)
	}
	l.tick(ctx, false)

	for {
		select {
		case <-ctx.Done():
			l.cfg.Logger.Info("schedule: loop stopped")
			return nil
		case <-l.force:
			l.tick(ctx, true)
		case <-ticker.C:
			l.tick(ctx, false)
		}
	}
}

// tick performs one iteration: dispatch due jobs, then reconcile if due
// or forced.
func (l *Loop) tick(ctx context.Context, force bool) {
	if ctx.Err() != nil {
		return
	}
	now := l.cfg.Now()
	l.scheduler.RunPending(ctx, now)

	if ctx.Err() != nil {
		return
	}
	if force || l.lastReconcile.IsZero() || now.Sub(l.lastReconcile) >= l.ReconcileInterval() {
		l.reconcile(ctx, l.cfg.Now())
	}
}

func (l *Loop) reconcile(ctx context.Context, now time.Time) {
	l.lastReconcile = now
	res, err := l.reconciler.Reconcile(ctx)
	if err != nil {
		l.cfg.Logger.Warn("schedule: reconcile failed", "error", err)
		return
	}
	if res.Rebuilt {
		l.cfg.Logger.Info("schedule: reconcile applied changes", "jobs", res.Jobs, "users", res.Users)
	}
}
