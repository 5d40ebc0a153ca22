package security

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestAuditLogger_WritesJSONL(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	fixedTime := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	logger := NewAuditLogger(AuditLoggerConfig{
		Writer: &buf,
		Now:    func() time.Time { return fixedTime },
	})

	logger.Log(AuditEvent{
		Type:     EventTriggerCheck,
		Remote:   "10.0.0.7:51234",
		Path:     "/trigger-check",
		Username: "alice",
		Outcome:  "reminded",
	})

	var got AuditEvent
	if err := json.NewDecoder(&buf).Decode(&got); err != nil {
		t.Fatalf("failed to decode JSONL: %v", err)
	}

	if got.Type != EventTriggerCheck {
		t.Errorf("type = %q, want %q", got.Type, EventTriggerCheck)
	}
	if got.Username != "alice" {
		t.Errorf("username = %q, want %q", got.Username, "alice")
	}
	if got.Outcome != "reminded" {
		t.Errorf("outcome = %q, want %q", got.Outcome, "reminded")
	}
	if !got.Timestamp.Equal(fixedTime) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, fixedTime)
	}
}

func TestAuditLogger_StampsUTC(t *testing.T) {
	t.Parallel()

	ist := time.FixedZone("IST", 5*3600+1800)
	var got AuditEvent
	logger := NewAuditLogger(AuditLoggerConfig{
		Now:     func() time.Time { return time.Date(2026, 3, 10, 5, 30, 0, 0, ist) },
		OnEvent: func(e AuditEvent) { got = e },
	})

	logger.Log(AuditEvent{Type: EventReconcile})

	if got.Timestamp.Location() != time.UTC {
		t.Errorf("location = %v, want UTC", got.Timestamp.Location())
	}
	if want := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC); !got.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, want)
	}
}

func TestAuditLogger_RedactsDetail(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := NewRedactor()
	r.AddLiteral("my-secret-key")

	logger := NewAuditLogger(AuditLoggerConfig{
		Writer:   &buf,
		Redactor: r,
	})

	logger.Log(AuditEvent{
		Type:   EventAuthFailure,
		Detail: "presented my-secret-key",
		Metadata: map[string]string{
			"header": "value is my-secret-key here",
		},
	})

	output := buf.String()
	if strings.Contains(output, "my-secret-key") {
		t.Errorf("secret found in audit output: %s", output)
	}
	if !strings.Contains(output, RedactPlaceholder) {
		t.Errorf("expected placeholder in audit output: %s", output)
	}
}

func TestAuditLogger_DoesNotMutateMetadata(t *testing.T) {
	t.Parallel()

	r := NewRedactor()
	r.AddLiteral("hunter2")
	logger := NewAuditLogger(AuditLoggerConfig{Writer: io.Discard, Redactor: r})

	meta := map[string]string{"password": "hunter2"}
	logger.Log(AuditEvent{Type: EventConfigReload, Metadata: meta})

	if meta["password"] != "hunter2" {
		t.Errorf("caller metadata mutated: %q", meta["password"])
	}
}

func TestAuditLogger_OnEventCallback(t *testing.T) {
	t.Parallel()

	var events []AuditEvent
	logger := NewAuditLogger(AuditLoggerConfig{
		OnEvent: func(e AuditEvent) {
			events = append(events, e)
		},
	})

	logger.Log(AuditEvent{Type: EventTriggerCheck, Username: "alice"})
	logger.Log(AuditEvent{Type: EventAuthFailure, Remote: "203.0.113.9:4000"})

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Type != EventTriggerCheck {
		t.Errorf("events[0].type = %q, want %q", events[0].Type, EventTriggerCheck)
	}
	if events[1].Type != EventAuthFailure {
		t.Errorf("events[1].type = %q, want %q", events[1].Type, EventAuthFailure)
	}
}

func TestAuditLogger_AllEventTypes(t *testing.T) {
	t.Parallel()

	types := []EventType{
		EventTriggerCheck, EventReconcile, EventAuthFailure,
		EventRateLimit, EventConfigReload,
	}

	var buf bytes.Buffer
	logger := NewAuditLogger(AuditLoggerConfig{Writer: &buf})

	for _, et := range types {
		logger.Log(AuditEvent{Type: et})
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != len(types) {
		t.Fatalf("got %d lines, want %d", len(lines), len(types))
	}
}

func TestAuditLogger_ConcurrentWrites(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewAuditLogger(AuditLoggerConfig{Writer: &buf})

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Log(AuditEvent{Type: EventTriggerCheck, Detail: "concurrent"})
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 50 {
		t.Fatalf("got %d lines, want 50", len(lines))
	}
}

func TestAuditLogger_NilWriter(t *testing.T) {
	t.Parallel()

	var called bool
	logger := NewAuditLogger(AuditLoggerConfig{
		OnEvent: func(_ AuditEvent) { called = true },
	})

	logger.Log(AuditEvent{Type: EventReconcile})

	if !called {
		t.Error("expected OnEvent to be called even with nil writer")
	}
}

func TestAuditLogger_NilReceiver(t *testing.T) {
	t.Parallel()

	var logger *AuditLogger
	logger.Log(AuditEvent{Type: EventReconcile})
	if got := logger.WriteErrors(); got != 0 {
		t.Errorf("WriteErrors() = %d, want 0", got)
	}
}

type errWriter struct{}

func (errWriter) Write(_ []byte) (int, error) {
	return 0, errors.New("write failed")
}

func TestAuditLogger_WriteErrors_CountsFailures(t *testing.T) {
	t.Parallel()

	logger := NewAuditLogger(AuditLoggerConfig{
		Writer: errWriter{},
	})

	logger.Log(AuditEvent{Type: EventRateLimit})
	logger.Log(AuditEvent{Type: EventRateLimit})

	if got := logger.WriteErrors(); got != 2 {
		t.Errorf("WriteErrors() = %d, want 2", got)
	}
}

func TestAuditLogger_WriteErrors_ZeroOnSuccess(t *testing.T) {
	t.Parallel()

	logger := NewAuditLogger(AuditLoggerConfig{
		Writer: io.Discard,
	})

	logger.Log(AuditEvent{Type: EventRateLimit})
	logger.Log(AuditEvent{Type: EventRateLimit})

	if got := logger.WriteErrors(); got != 0 {
		t.Errorf("WriteErrors() = %d, want 0", got)
	}
}
