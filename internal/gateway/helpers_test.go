package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Rajat069/leetcode-reminder-bot/internal/check"
	"github.com/Rajat069/leetcode-reminder-bot/internal/metrics"
	"github.com/Rajat069/leetcode-reminder-bot/internal/schedule"
	"github.com/Rajat069/leetcode-reminder-bot/internal/security"
	"github.com/Rajat069/leetcode-reminder-bot/internal/security/securitytest"
	"github.com/Rajat069/leetcode-reminder-bot/pkg/potd"
)

const testKey = "gateway-test-key"

type call struct {
	Username string
	Email    string
}

type fakeChecker struct {
	mu      sync.Mutex
	calls   []call
	outcome potd.Outcome
	err     error
}

func (f *fakeChecker) CheckOnDemand(_ context.Context, username, email string) (check.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{Username: username, Email: email})
	f.mu.Unlock()

	res := check.Result{
		RunID:    "run-1",
		Username: username,
		Email:    email,
		Slug:     "two-sum",
		Outcome:  f.outcome,
	}
	if f.err != nil {
		res.Outcome = potd.OutcomeError
		res.Error = f.err.Error()
		res.Err = f.err
	}
	return res, f.err
}

func (f *fakeChecker) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

type fakeSchedule []schedule.JobInfo

func (f fakeSchedule) Jobs() []schedule.JobInfo { return f }

type fakeReconcile struct {
	mu     sync.Mutex
	forced int
}

func (f *fakeReconcile) ForceReconcile() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forced++
}

func (f *fakeReconcile) Forced() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.forced
}

type fakeHistory struct {
	records   []potd.CheckRecord
	err       error
	mu        sync.Mutex
	lastUser  string
	lastLimit int
}

func (f *fakeHistory) Recent(_ context.Context, username string, limit int) ([]potd.CheckRecord, error) {
	f.mu.Lock()
	f.lastUser, f.lastLimit = username, limit
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []potd.CheckRecord
	for _, r := range f.records {
		if username == "" || r.Username == username {
			out = append(out, r)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var errBoom = errors.New("boom")

type fixture struct {
	gw        *Gateway
	checker   *fakeChecker
	reconcile *fakeReconcile
	history   *fakeHistory
	metrics   *metrics.Metrics
	events    func() []security.AuditEvent
}

func newFixture(t *testing.T, mutate func(*Config, *Deps)) *fixture {
	t.Helper()

	audit, events := securitytest.NewTestAuditLogger()
	f := &fixture{
		checker:   &fakeChecker{outcome: potd.OutcomeReminded},
		reconcile: &fakeReconcile{},
		history: &fakeHistory{records: []potd.CheckRecord{
			{RunID: "r2", Username: "bob", Slug: "two-sum", Outcome: potd.OutcomeSolved, Trigger: "scheduled", CheckedAt: time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)},
			{RunID: "r1", Username: "alice", Slug: "two-sum", Outcome: potd.OutcomeReminded, Trigger: "manual", CheckedAt: time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)},
		}},
		metrics: metrics.New(),
		events:  events,
	}

	cfg := Config{Bind: "127.0.0.1:0", APIKey: testKey}
	deps := Deps{
		Checker: f.checker,
		Schedule: fakeSchedule{
			{TimeOfDay: "09:30", UserID: "u1", NextRun: time.Date(2026, 3, 11, 9, 30, 0, 0, time.UTC)},
		},
		Reconcile: f.reconcile,
		History:   f.history,
		Metrics:   f.metrics,
		Audit:     audit,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if mutate != nil {
		mutate(&cfg, &deps)
	}

	gw, err := New(cfg, deps)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.gw = gw
	return f
}

func (f *fixture) do(t *testing.T, method, path, key, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if key != "" {
		req.Header.Set(APIKeyHeader, key)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	f.gw.Handler().ServeHTTP(rr, req)
	return rr
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, want, rr.Body.String())
	}
}
