// Package crontest provides test doubles for the cron package.
package crontest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Rajat069/leetcode-reminder-bot/internal/cron"
)

// MockJob is a configurable test double for cron.Job.
type MockJob struct {
	NameVal     string
	ScheduleVal string
	RunFunc     func(ctx context.Context) error

	mu       sync.Mutex
	calls    int
	lastCall time.Time
}

// Compile-time interface check.
var _ cron.Job = (*MockJob)(nil)

// Name implements cron.Job.
func (m *MockJob) Name() string { return m.NameVal }

// Schedule implements cron.Job.
func (m *MockJob) Schedule() string { return m.ScheduleVal }

// Run implements cron.Job and increments the call counter.
func (m *MockJob) Run(ctx context.Context) error {
	m.mu.Lock()
	m.calls++
	m.lastCall = time.Now()
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(ctx)
	}
	return nil
}

// CallCount returns the number of times Run was called.
func (m *MockJob) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastCall returns the time of the last Run call.
func (m *MockJob) LastCall() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCall
}

// MockEvictor is a test double for cron.Evictor.
type MockEvictor struct {
	Evictions atomic.Int32
}

// Compile-time interface check.
var _ cron.Evictor = (*MockEvictor)(nil)

// EvictAll implements cron.Evictor.
func (m *MockEvictor) EvictAll() {
	m.Evictions.Add(1)
}

// MockPruner is a test double for cron.HistoryPruner.
type MockPruner struct {
	Pruned int64
	Err    error

	mu     sync.Mutex
	before []time.Time
}

// Compile-time interface check.
var _ cron.HistoryPruner = (*MockPruner)(nil)

// Prune implements cron.HistoryPruner.
func (m *MockPruner) Prune(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	m.before = append(m.before, before)
	m.mu.Unlock()
	return m.Pruned, m.Err
}

// Cutoffs returns the cutoffs Prune was called with.
func (m *MockPruner) Cutoffs() []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Time(nil), m.before...)
}
