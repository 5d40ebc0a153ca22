package gateway

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Rajat069/leetcode-reminder-bot/internal/security"
)

func TestStatus(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.metrics.RecordEmail(nil)

	rr := f.do(t, http.MethodGet, "/api/status", testKey, "")
	assertStatus(t, rr, http.StatusOK)

	var got StatusResponse
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ScheduledJobs != 1 {
		t.Errorf("scheduled_jobs = %d, want 1", got.ScheduledJobs)
	}
	if got.Metrics.EmailsSent != 1 {
		t.Errorf("emails_sent = %v, want 1", got.Metrics.EmailsSent)
	}
}

func TestSchedule(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	rr := f.do(t, http.MethodGet, "/api/schedule", testKey, "")
	assertStatus(t, rr, http.StatusOK)

	var got ScheduleResponse
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Jobs) != 1 || got.Jobs[0].UserID != "u1" || got.Jobs[0].TimeOfDay != "09:30" {
		t.Errorf("jobs = %+v", got.Jobs)
	}
}

func TestSchedule_EmptyIsArray(t *testing.T) {
	t.Parallel()

	f := newFixture(t, func(_ *Config, d *Deps) { d.Schedule = fakeSchedule(nil) })
	rr := f.do(t, http.MethodGet, "/api/schedule", testKey, "")
	assertStatus(t, rr, http.StatusOK)
	if got := rr.Body.String(); got != "{\"jobs\":[]}\n" {
		t.Errorf("body = %q", got)
	}
}

func TestChecks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantLen   int
		wantUser  string
		wantLimit int
	}{
		{name: "default", query: "", wantCode: http.StatusOK, wantLen: 2, wantLimit: 50},
		{name: "limit", query: "?limit=1", wantCode: http.StatusOK, wantLen: 1, wantLimit: 1},
		{name: "username", query: "?username=alice", wantCode: http.StatusOK, wantLen: 1, wantUser: "alice", wantLimit: 50},
		{name: "zero limit", query: "?limit=0", wantCode: http.StatusBadRequest},
		{name: "huge limit", query: "?limit=5000", wantCode: http.StatusBadRequest},
		{name: "bad limit", query: "?limit=ten", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, nil)
			rr := f.do(t, http.MethodGet, "/api/checks"+tt.query, testKey, "")
			assertStatus(t, rr, tt.wantCode)
			if tt.wantCode != http.StatusOK {
				return
			}

			var got ChecksResponse
			if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(got.Checks) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(got.Checks), tt.wantLen)
			}
			if f.history.lastUser != tt.wantUser || f.history.lastLimit != tt.wantLimit {
				t.Errorf("Recent(%q, %d), want (%q, %d)", f.history.lastUser, f.history.lastLimit, tt.wantUser, tt.wantLimit)
			}
		})
	}
}

func TestChecks_HistoryDisabled(t *testing.T) {
	t.Parallel()

	f := newFixture(t, func(_ *Config, d *Deps) { d.History = nil })
	assertStatus(t, f.do(t, http.MethodGet, "/api/checks", testKey, ""), http.StatusServiceUnavailable)
}

func TestChecks_HistoryError(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.history.err = errBoom
	assertStatus(t, f.do(t, http.MethodGet, "/api/checks", testKey, ""), http.StatusInternalServerError)
}

func TestReconcile(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	rr := f.do(t, http.MethodPost, "/api/reconcile", testKey, "")
	assertStatus(t, rr, http.StatusAccepted)

	if f.reconcile.Forced() != 1 {
		t.Errorf("forced = %d, want 1", f.reconcile.Forced())
	}
	events := f.events()
	if len(events) != 1 || events[0].Type != security.EventReconcile {
		t.Errorf("audit events = %+v", events)
	}
}

func TestReconcile_Unavailable(t *testing.T) {
	t.Parallel()

	f := newFixture(t, func(_ *Config, d *Deps) { d.Reconcile = nil })
	assertStatus(t, f.do(t, http.MethodPost, "/api/reconcile", testKey, ""), http.StatusServiceUnavailable)
}
