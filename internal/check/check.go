// Package check decides, for each user, whether today's problem has been
// solved and sends the matching report email.
package check

import (
	"context"
	"time"

	"github.com/Rajat069/leetcode-reminder-bot/internal/mail"
	"github.com/Rajat069/leetcode-reminder-bot/pkg/potd"
)

// QuestionSource fetches the problem of the day from the origin.
type QuestionSource interface {
	DailyQuestion(ctx context.Context) (potd.Question, error)
}

// SubmissionSource fetches a user's recently accepted submissions.
type SubmissionSource interface {
	RecentSubmissions(ctx context.Context, username string) ([]potd.Submission, error)
}

// ContentGenerator produces the motivational quote and hints. Errors are
// replaced by static defaults; they never fail a check.
type ContentGenerator interface {
	Quote(ctx context.Context) (string, error)
	Hints(ctx context.Context, q potd.Question, count int) ([]string, error)
}

// Mailer dispatches a rendered message.
type Mailer interface {
	Send(ctx context.Context, msg mail.Message) error
}

// StatusReporter pushes a check outcome back to the user registry.
type StatusReporter interface {
	ReportStatus(ctx context.Context, userID string, outcome potd.Outcome, checkedAt time.Time) error
}

// HistoryRecorder persists check results locally.
type HistoryRecorder interface {
	Record(ctx context.Context, rec potd.CheckRecord) error
}

// UserDirectory resolves a scheduled user ID to its latest record.
type UserDirectory interface {
	Lookup(userID string) (potd.User, bool)
}

// Triggers recorded with each check.
const (
	TriggerScheduled = "scheduled"
	TriggerRun       = "run"
	TriggerManual    = "manual"
)
