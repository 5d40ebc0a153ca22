package gateway

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/Rajat069/leetcode-reminder-bot/internal/security"
	"github.com/Rajat069/leetcode-reminder-bot/pkg/potd"
)

func TestTriggerCheck_Success(t *testing.T) {
	t.Parallel()

	tests := []struct {
		outcome     potd.Outcome
		wantMessage string
	}{
		{potd.OutcomeSolved, "User has solved today's problem; congratulation email sent"},
		{potd.OutcomeReminded, "User has not solved today's problem; reminder email sent"},
	}

	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, nil)
			f.checker.outcome = tt.outcome

			rr := f.do(t, http.MethodPost, "/trigger-check", testKey,
				`{"username":" alice ","email":"alice@example.com"}`)
			assertStatus(t, rr, http.StatusOK)

			var got TriggerResponse
			if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Status != "success" {
				t.Errorf("status = %q, want success", got.Status)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", got.Message, tt.wantMessage)
			}
			if got.Data.Outcome != tt.outcome || got.Data.Slug != "two-sum" {
				t.Errorf("data = %+v", got.Data)
			}

			calls := f.checker.Calls()
			if len(calls) != 1 || calls[0] != (call{Username: "alice", Email: "alice@example.com"}) {
				t.Errorf("checker calls = %+v", calls)
			}

			events := f.events()
			if len(events) != 1 || events[0].Type != security.EventTriggerCheck {
				t.Fatalf("audit events = %+v", events)
			}
			if events[0].Username != "alice" || events[0].Outcome != string(tt.outcome) {
				t.Errorf("audit event = %+v", events[0])
			}
		})
	}
}

func TestTriggerCheck_CheckFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.checker.err = errBoom

	rr := f.do(t, http.MethodPost, "/trigger-check", testKey,
		`{"username":"alice","email":"alice@example.com"}`)
	assertStatus(t, rr, http.StatusInternalServerError)

	var got errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Detail != "boom" {
		t.Errorf("detail = %q, want boom", got.Detail)
	}
	if events := f.events(); len(events) != 1 || events[0].Outcome != string(potd.OutcomeError) {
		t.Errorf("audit events = %+v", events)
	}
}

func TestTriggerCheck_InvalidBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantDetail string
	}{
		{"malformed", `{"username":`, "invalid request body"},
		{"missing username", `{"email":"alice@example.com"}`, "username"},
		{"blank username", `{"username":"   ","email":"alice@example.com"}`, "username"},
		{"missing email", `{"username":"alice"}`, "email"},
		{"bad email", `{"username":"alice","email":"not-an-email"}`, "email"},
		{"long username", `{"username":"` + strings.Repeat("a", 65) + `","email":"alice@example.com"}`, "username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, nil)
			rr := f.do(t, http.MethodPost, "/trigger-check", testKey, tt.body)
			assertStatus(t, rr, http.StatusBadRequest)

			var got errorResponse
			if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !strings.Contains(got.Detail, tt.wantDetail) {
				t.Errorf("detail = %q, want it to mention %q", got.Detail, tt.wantDetail)
			}
			if len(f.checker.Calls()) != 0 {
				t.Error("checker called for an invalid request")
			}
		})
	}
}

func TestTriggerCheck_Throttled(t *testing.T) {
	t.Parallel()

	f := newFixture(t, func(c *Config, _ *Deps) {
		c.RequestsPerSecond = 0.001
		c.Burst = 1
	})
	body := `{"username":"alice","email":"alice@example.com"}`

	assertStatus(t, f.do(t, http.MethodPost, "/trigger-check", testKey, body), http.StatusOK)

	rr := f.do(t, http.MethodPost, "/trigger-check", testKey, body)
	assertStatus(t, rr, http.StatusTooManyRequests)
	if rr.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	if n := len(f.checker.Calls()); n != 1 {
		t.Errorf("checker calls = %d, want 1", n)
	}

	var limited int
	for _, e := range f.events() {
		if e.Type == security.EventRateLimit {
			limited++
		}
	}
	if limited != 1 {
		t.Errorf("rate_limit events = %d, want 1", limited)
	}
}

func TestTriggerCheck_ThrottleAppliesAfterAuth(t *testing.T) {
	t.Parallel()

	f := newFixture(t, func(c *Config, _ *Deps) {
		c.RequestsPerSecond = 0.001
		c.Burst = 1
	})
	body := `{"username":"alice","email":"alice@example.com"}`

	// Unauthenticated requests must not drain the shared budget.
	for range 3 {
		assertStatus(t, f.do(t, http.MethodPost, "/trigger-check", "wrong", body), http.StatusForbidden)
	}
	assertStatus(t, f.do(t, http.MethodPost, "/trigger-check", testKey, body), http.StatusOK)
}
