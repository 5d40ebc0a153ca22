package schedule_test

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/Rajat069/leetcode-reminder-bot/internal/schedule"
	"github.com/Rajat069/leetcode-reminder-bot/internal/schedule/scheduletest"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func at(hh, mm int) time.Time {
	return time.Date(2026, 3, 10, hh, mm, 0, 0, time.UTC)
}

func TestScheduler_RunPendingInvokesOnlyDueJobs(t *testing.T) {
	t.Parallel()

	h := &scheduletest.RecordingHandler{}
	s := schedule.NewScheduler(slog.Default(), fixedClock(at(8, 0)))

	for _, job := range []struct{ time, user string }{
		{"09:00", "alice"},
		{"09:00", "bob"},
		{"18:00", "alice"},
		{"09:01", "carol"},
	} {
		if err := s.Schedule(job.time, h.Handle, job.user); err != nil {
			t.Fatalf("Schedule(%s, %s): %v", job.time, job.user, err)
		}
	}

	if n := s.RunPending(context.Background(), at(8, 59)); n != 0 {
		t.Fatalf("ran %d jobs before any was due", n)
	}

	n := s.RunPending(context.Background(), at(9, 0).Add(500*time.Millisecond))
	if n != 2 {
		t.Fatalf("ran %d jobs, want 2", n)
	}
	if got, want := h.Calls(), []string{"alice", "bob"}; !slices.Equal(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
}

func TestScheduler_RunPendingOncePerOccurrence(t *testing.T) {
	t.Parallel()

	h := &scheduletest.RecordingHandler{}
	s := schedule.NewScheduler(slog.Default(), fixedClock(at(8, 0)))
	_ = s.Schedule("09:00", h.Handle, "alice")

	// One-second ticks across the whole 09:00 minute.
	for sec := range 60 {
		s.RunPending(context.Background(), at(9, 0).Add(time.Duration(sec)*time.Second))
	}
	if got := len(h.Calls()); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}

	// Fires again the next day.
	s.RunPending(context.Background(), at(9, 0).AddDate(0, 0, 1))
	if got := len(h.Calls()); got != 2 {
		t.Errorf("calls after a day = %d, want 2", got)
	}
}

func TestScheduler_LateTickStillRuns(t *testing.T) {
	t.Parallel()

	h := &scheduletest.RecordingHandler{}
	s := schedule.NewScheduler(slog.Default(), fixedClock(at(8, 0)))
	_ = s.Schedule("09:00", h.Handle, "alice")

	// The loop was blocked past the job's minute.
	if n := s.RunPending(context.Background(), at(9, 3)); n != 1 {
		t.Fatalf("ran %d jobs, want 1", n)
	}
}

func TestScheduler_RegisteredAfterTimeWaitsForNextDay(t *testing.T) {
	t.Parallel()

	h := &scheduletest.RecordingHandler{}
	s := schedule.NewScheduler(slog.Default(), fixedClock(at(9, 30)))
	_ = s.Schedule("09:00", h.Handle, "alice")

	if n := s.RunPending(context.Background(), at(9, 31)); n != 0 {
		t.Fatalf("ran %d jobs, want 0", n)
	}
	jobs := s.Jobs()
	if len(jobs) != 1 || !jobs[0].NextRun.Equal(at(9, 0).AddDate(0, 0, 1)) {
		t.Errorf("jobs = %+v, want next run tomorrow 09:00", jobs)
	}
}

func TestScheduler_FailuresAreIsolated(t *testing.T) {
	t.Parallel()

	h := &scheduletest.RecordingHandler{
		Errs:   map[string]error{"alice": errors.New("smtp down")},
		Panics: map[string]bool{"bob": true},
	}
	s := schedule.NewScheduler(slog.Default(), fixedClock(at(8, 0)))
	for _, u := range []string{"alice", "bob", "carol"} {
		_ = s.Schedule("09:00", h.Handle, u)
	}

	if n := s.RunPending(context.Background(), at(9, 0)); n != 3 {
		t.Fatalf("ran %d jobs, want 3", n)
	}
	if got, want := h.Calls(), []string{"alice", "bob", "carol"}; !slices.Equal(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
}

func TestScheduler_Clear(t *testing.T) {
	t.Parallel()

	h := &scheduletest.RecordingHandler{}
	s := schedule.NewScheduler(slog.Default(), fixedClock(at(8, 0)))
	_ = s.Schedule("09:00", h.Handle, "alice")
	_ = s.Schedule("10:00", h.Handle, "bob")

	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("Len = %d, want 0", s.Len())
	}
	if n := s.RunPending(context.Background(), at(23, 0)); n != 0 {
		t.Errorf("ran %d jobs after Clear", n)
	}
}

func TestScheduler_ScheduleRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	h := &scheduletest.RecordingHandler{}
	s := schedule.NewScheduler(nil, nil)

	if err := s.Schedule("25:00", h.Handle, "alice"); err == nil {
		t.Error("expected error for invalid time")
	}
	if err := s.Schedule("09:00", nil, "alice"); err == nil {
		t.Error("expected error for nil handler")
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestScheduler_RunPendingStopsStartingJobsAfterCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	var (
		calls      []string
		handlerErr error
	)
	h := func(hctx context.Context, userID string) error {
		calls = append(calls, userID)
		cancel()
		// The running handler keeps a live context after shutdown begins.
		handlerErr = hctx.Err()
		return nil
	}

	s := schedule.NewScheduler(slog.Default(), fixedClock(at(8, 0)))
	for _, u := range []string{"alice", "bob", "carol"} {
		if err := s.Schedule("09:00", h, u); err != nil {
			t.Fatal(err)
		}
	}

	if n := s.RunPending(ctx, at(9, 0)); n != 1 {
		t.Fatalf("ran %d jobs, want 1", n)
	}
	if !slices.Equal(calls, []string{"alice"}) {
		t.Errorf("calls = %v, want [alice]", calls)
	}
	if handlerErr != nil {
		t.Errorf("handler context error = %v, want nil", handlerErr)
	}

	// Jobs not started stay due for the next dispatch.
	if n := s.RunPending(context.Background(), at(9, 0).Add(time.Second)); n != 2 {
		t.Fatalf("ran %d jobs on the next call, want 2", n)
	}
	if want := []string{"alice", "bob", "carol"}; !slices.Equal(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestScheduler_RunPendingCancelledBeforeStart(t *testing.T) {
	t.Parallel()

	h := &scheduletest.RecordingHandler{}
	s := schedule.NewScheduler(slog.Default(), fixedClock(at(8, 0)))
	if err := s.Schedule("09:00", h.Handle, "alice"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if n := s.RunPending(ctx, at(9, 0)); n != 0 {
		t.Errorf("ran %d jobs with a cancelled context, want 0", n)
	}
	if got := s.Jobs()[0].NextRun; !got.Equal(at(9, 0)) {
		t.Errorf("next run = %v, want it left at %v", got, at(9, 0))
	}
}
