// Package checktest provides test doubles for the check package.
package checktest

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Rajat069/leetcode-reminder-bot/internal/check"
	"github.com/Rajat069/leetcode-reminder-bot/internal/mail"
	"github.com/Rajat069/leetcode-reminder-bot/pkg/potd"
)

// Compile-time interface checks.
var (
	_ check.QuestionSource   = (*MockQuestions)(nil)
	_ check.SubmissionSource = (*MockSubmissions)(nil)
	_ check.ContentGenerator = (*MockContent)(nil)
	_ check.Mailer           = (*MockMailer)(nil)
	_ check.StatusReporter   = (*MockStatus)(nil)
	_ check.HistoryRecorder  = (*MockHistory)(nil)
)

// MockQuestions returns a fixed question or error.
type MockQuestions struct {
	Question potd.Question
	Err      error
	Calls    atomic.Int32
}

// DailyQuestion implements check.QuestionSource.
func (m *MockQuestions) DailyQuestion(_ context.Context) (potd.Question, error) {
	m.Calls.Add(1)
	if m.Err != nil {
		return potd.Question{}, m.Err
	}
	return m.Question, nil
}

// MockSubmissions returns per-username submissions or errors.
type MockSubmissions struct {
	ByUser map[string][]potd.Submission
	Errs   map[string]error
	Calls  atomic.Int32
}

// RecentSubmissions implements check.SubmissionSource.
func (m *MockSubmissions) RecentSubmissions(_ context.Context, username string) ([]potd.Submission, error) {
	m.Calls.Add(1)
	if err := m.Errs[username]; err != nil {
		return nil, err
	}
	return slices.Clone(m.ByUser[username]), nil
}

// MockContent is a configurable content generator.
type MockContent struct {
	QuoteVal string
	QuoteErr error
	HintsVal []string
	HintsErr error

	HintCalls  atomic.Int32
	LastCount  atomic.Int32
	QuoteCalls atomic.Int32
}

// Quote implements check.ContentGenerator.
func (m *MockContent) Quote(_ context.Context) (string, error) {
	m.QuoteCalls.Add(1)
	return m.QuoteVal, m.QuoteErr
}

// Hints implements check.ContentGenerator.
func (m *MockContent) Hints(_ context.Context, _ potd.Question, count int) ([]string, error) {
	m.HintCalls.Add(1)
	m.LastCount.Store(int32(count))
	if m.HintsErr != nil {
		return nil, m.HintsErr
	}
	return slices.Clone(m.HintsVal), nil
}

// MockMailer records sent messages and fails for configured recipients.
type MockMailer struct {
	Fail map[string]error

	mu   sync.Mutex
	sent []mail.Message
}

// Send implements check.Mailer.
func (m *MockMailer) Send(_ context.Context, msg mail.Message) error {
	if err := m.Fail[msg.To]; err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns the delivered messages in order.
func (m *MockMailer) Sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.sent)
}

// StatusCall is one recorded status push.
type StatusCall struct {
	UserID    string
	Outcome   potd.Outcome
	CheckedAt time.Time
}

// MockStatus records status pushes.
type MockStatus struct {
	Err error

	mu    sync.Mutex
	calls []StatusCall
}

// ReportStatus implements check.StatusReporter.
func (m *MockStatus) ReportStatus(_ context.Context, userID string, outcome potd.Outcome, checkedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, StatusCall{UserID: userID, Outcome: outcome, CheckedAt: checkedAt})
	return m.Err
}

// Calls returns the recorded pushes.
func (m *MockStatus) Calls() []StatusCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// MockHistory records check records in memory.
type MockHistory struct {
	mu      sync.Mutex
	records []potd.CheckRecord
}

// Record implements check.HistoryRecorder.
func (m *MockHistory) Record(_ context.Context, rec potd.CheckRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// Records returns the stored records.
func (m *MockHistory) Records() []potd.CheckRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.records)
}

// Directory is a map-backed check.UserDirectory.
type Directory map[string]potd.User

// Lookup implements check.UserDirectory.
func (d Directory) Lookup(userID string) (potd.User, bool) {
	u, ok := d[userID]
	return u, ok
}
