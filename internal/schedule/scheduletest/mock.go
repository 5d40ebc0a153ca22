// Package scheduletest provides test doubles for the schedule package.
package scheduletest

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/Rajat069/leetcode-reminder-bot/internal/schedule"
	"github.com/Rajat069/leetcode-reminder-bot/pkg/potd"
)

// MockUserSource is a configurable test double for schedule.UserSource.
type MockUserSource struct {
	mu    sync.Mutex
	users []potd.User
	err   error
	Calls atomic.Int32
}

// Compile-time interface check.
var _ schedule.UserSource = (*MockUserSource)(nil)

// Set replaces the users and error returned by subsequent fetches.
func (m *MockUserSource) Set(users []potd.User, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = slices.Clone(users)
	m.err = err
}

// FetchUsers implements schedule.UserSource.
func (m *MockUserSource) FetchUsers(_ context.Context) ([]potd.User, error) {
	m.Calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return slices.Clone(m.users), nil
}

// RecordingHandler records the user IDs it is invoked with.
type RecordingHandler struct {
	// Errs maps a user ID to the error its invocation returns.
	Errs map[string]error
	// Panics lists user IDs whose invocation panics.
	Panics map[string]bool

	mu    sync.Mutex
	calls []string
}

// Handle is a schedule.Handler.
func (h *RecordingHandler) Handle(_ context.Context, userID string) error {
	h.mu.Lock()
	h.calls = append(h.calls, userID)
	h.mu.Unlock()

	if h.Panics[userID] {
		panic("handler panic for " + userID)
	}
	return h.Errs[userID]
}

// Calls returns the recorded user IDs in invocation order.
func (h *RecordingHandler) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.calls)
}

// Reset clears the recorded calls.
func (h *RecordingHandler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = nil
}
