package check

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Rajat069/leetcode-reminder-bot/internal/mail"
	"github.com/Rajat069/leetcode-reminder-bot/internal/metrics"
	"github.com/Rajat069/leetcode-reminder-bot/pkg/potd"
)

const tracerName = "reminderbot/check"

// Config configures an Orchestrator.
type Config struct {
	Questions   *DailyQuestions
	Submissions SubmissionSource
	Content     ContentGenerator
	Mailer      Mailer

	// Optional collaborators.
	Status    StatusReporter
	History   HistoryRecorder
	Directory UserDirectory
	Metrics   *metrics.Metrics

	// DayLocation defines the calendar day a submission must fall on.
	// Defaults to IST (UTC+05:30).
	DayLocation *time.Location
	// MaxHints caps the number of generated hints. Defaults to 3.
	MaxHints int
	// UserTimeout bounds a single user check. Defaults to 2m.
	UserTimeout time.Duration
	// StatusTimeout bounds the best-effort status push. Defaults to 10s.
	StatusTimeout time.Duration

	Logger *slog.Logger
	Now    func() time.Time // injectable for testing
}

func (c Config) withDefaults() Config {
	if c.DayLocation == nil {
		c.DayLocation = time.FixedZone("IST", 5*60*60+30*60)
	}
	if c.MaxHints <= 0 {
		c.MaxHints = 3
	}
	if c.UserTimeout <= 0 {
		c.UserTimeout = 2 * time.Minute
	}
	if c.StatusTimeout <= 0 {
		c.StatusTimeout = 10 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Result is the terminal state of one user check.
type Result struct {
	RunID     string       `json:"run_id"`
	UserID    string       `json:"user_id,omitempty"`
	Username  string       `json:"username"`
	Email     string       `json:"email"`
	Slug      string       `json:"slug"`
	Outcome   potd.Outcome `json:"outcome"`
	Hints     []string     `json:"hints,omitempty"`
	Error     string       `json:"error,omitempty"`
	CheckedAt time.Time    `json:"checked_at"`

	Err error `json:"-"`
}

// RunSummary aggregates a run over all users.
type RunSummary struct {
	RunID    string        `json:"run_id"`
	Question potd.Question `json:"question"`
	Day      string        `json:"day"`
	Results  []Result      `json:"results"`
	Solved   int           `json:"solved"`
	Reminded int           `json:"reminded"`
	Errors   int           `json:"errors"`
}

func (s *RunSummary) add(r Result) {
	s.Results = append(s.Results, r)
	switch r.Outcome {
	case potd.OutcomeSolved:
		s.Solved++
	case potd.OutcomeReminded:
		s.Reminded++
	default:
		s.Errors++
	}
}

// run is the state fixed for every user checked in one run.
type run struct {
	id       string
	trigger  string
	question potd.Question
	day      Day
}

// Orchestrator runs per-user checks. Users are always processed
// sequentially.
type Orchestrator struct {
	cfg Config
}

// New validates cfg and returns an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	var errs []error
	if cfg.Questions == nil {
		errs = append(errs, errors.New("check: nil Questions"))
	}
	if cfg.Submissions == nil {
		errs = append(errs, errors.New("check: nil SubmissionSource"))
	}
	if cfg.Content == nil {
		errs = append(errs, errors.New("check: nil ContentGenerator"))
	}
	if cfg.Mailer == nil {
		errs = append(errs, errors.New("check: nil Mailer"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &Orchestrator{cfg: cfg.withDefaults()}, nil
}

// RunAll checks every active user in order; paused users are skipped. It
// aborts before contacting any user when no active user remains or the
// daily question is unavailable. Cancelling ctx stops the run between users.
func (o *Orchestrator) RunAll(ctx context.Context, users []potd.User) (RunSummary, error) {
	users = potd.ActiveUsers(users)
	ctx, span := otel.Tracer(tracerName).Start(ctx, "check.RunAll",
		trace.WithAttributes(attribute.Int("users", len(users))))
	defer span.End()

	if len(users) == 0 {
		o.cfg.Metrics.RecordRun(metrics.RunAborted)
		o.cfg.Logger.Warn("check: no users to check, aborting run")
		return RunSummary{}, potd.ErrNoUsers
	}

	r, err := o.newRun(ctx, TriggerRun)
	if err != nil {
		o.cfg.Metrics.RecordRun(metrics.RunAborted)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.cfg.Logger.Error("check: aborting run, daily question unavailable", "error", err)
		return RunSummary{}, err
	}

	summary := RunSummary{RunID: r.id, Question: r.question, Day: r.day.String()}
	o.cfg.Logger.Info("check: run started",
		"run_id", r.id,
		"slug", r.question.Slug,
		"day", summary.Day,
		"users", len(users),
	)

	for _, u := range users {
		if err := ctx.Err(); err != nil {
			o.cfg.Metrics.RecordRun(metrics.RunAborted)
			return summary, fmt.Errorf("check: run interrupted: %w", err)
		}
		summary.add(o.check(ctx, r, u))
	}

	o.cfg.Metrics.RecordRun(metrics.RunCompleted)
	o.cfg.Logger.Info("check: run finished",
		"run_id", r.id,
		"solved", summary.Solved,
		"reminded", summary.Reminded,
		"errors", summary.Errors,
	)
	return summary, nil
}

// CheckUser checks a single user against today's question.
func (o *Orchestrator) CheckUser(ctx context.Context, user potd.User, trigger string) Result {
	r, err := o.newRun(ctx, trigger)
	if err != nil {
		o.cfg.Logger.Error("check: daily question unavailable", "user", user.Username, "error", err)
		return o.finish(ctx, r, user, potd.OutcomeError, nil, err, time.Now())
	}
	return o.check(ctx, r, user)
}

// CheckScheduled is the reminder job handler. It resolves userID through
// the directory and returns the check error, if any.
func (o *Orchestrator) CheckScheduled(ctx context.Context, userID string) error {
	if o.cfg.Directory == nil {
		return errors.New("check: no user directory configured")
	}
	user, ok := o.cfg.Directory.Lookup(userID)
	if !ok {
		return fmt.Errorf("check: unknown user %q", userID)
	}
	res := o.CheckUser(ctx, user, TriggerScheduled)
	return res.Err
}

// CheckOnDemand checks an ad-hoc user that need not be registered.
// The returned error is non-nil when the outcome is potd.OutcomeError.
func (o *Orchestrator) CheckOnDemand(ctx context.Context, username, email string) (Result, error) {
	res := o.CheckUser(ctx, potd.User{Username: username, Email: email}, TriggerManual)
	return res, res.Err
}

func (o *Orchestrator) newRun(ctx context.Context, trigger string) (run, error) {
	r := run{
		id:      uuid.NewString(),
		trigger: trigger,
		day:     DayOf(o.cfg.Now(), o.cfg.DayLocation),
	}
	q, err := o.cfg.Questions.Today(ctx)
	if err != nil {
		return r, err
	}
	r.question = q
	return r, nil
}

// check runs the per-user sequence. Failures, including panics, are
// contained and reported as potd.OutcomeError.
func (o *Orchestrator) check(ctx context.Context, r run, user potd.User) (res Result) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, o.cfg.UserTimeout)
	defer cancel()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "check.User",
		trace.WithAttributes(
			attribute.String("run_id", r.id),
			attribute.String("user", user.Username),
			attribute.String("slug", r.question.Slug),
		))
	defer func() {
		span.SetAttributes(attribute.String("outcome", string(res.Outcome)))
		if res.Err != nil {
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, res.Err.Error())
		}
		span.End()
	}()

	defer func() {
		if p := recover(); p != nil {
			res = o.finish(ctx, r, user, potd.OutcomeError, nil, fmt.Errorf("check: panic: %v", p), start)
		}
	}()

	logger := o.cfg.Logger.With("run_id", r.id, "user", user.Username)
	logger.Info("check: checking user")

	subs, err := o.cfg.Submissions.RecentSubmissions(ctx, user.Username)
	if err != nil {
		logger.Warn("check: submissions unavailable, treating as unsolved", "error", err)
		subs = nil
	}
	solved := SolvedOn(subs, r.question.Slug, r.day, o.cfg.DayLocation)

	report := mail.Report{
		Username: user.Username,
		Email:    user.Email,
		Question: r.question,
		Solved:   solved,
		Quote:    o.quote(ctx, logger),
	}
	if !solved {
		report.Hints = o.hints(ctx, logger, r.question)
	}

	msg, err := mail.Compose(report)
	if err != nil {
		return o.finish(ctx, r, user, potd.OutcomeError, nil, err, start)
	}

	err = o.cfg.Mailer.Send(ctx, msg)
	o.cfg.Metrics.RecordEmail(err)
	if err != nil {
		logger.Error("check: email failed", "error", err)
		return o.finish(ctx, r, user, potd.OutcomeError, nil, err, start)
	}

	outcome := potd.OutcomeReminded
	if solved {
		outcome = potd.OutcomeSolved
	}
	logger.Info("check: email sent", "outcome", string(outcome), "subject", msg.Subject)
	return o.finish(ctx, r, user, outcome, report.Hints, nil, start)
}

func (o *Orchestrator) quote(ctx context.Context, logger *slog.Logger) string {
	q, err := o.cfg.Content.Quote(ctx)
	if err != nil || q == "" {
		logger.Warn("check: quote generation failed, using default", "error", err)
		o.cfg.Metrics.RecordFallback(metrics.FallbackQuote)
		return potd.DefaultQuote
	}
	return q
}

func (o *Orchestrator) hints(ctx context.Context, logger *slog.Logger, q potd.Question) []string {
	n := o.hintCount(q)
	hints, err := o.cfg.Content.Hints(ctx, q, n)
	if err != nil || len(hints) == 0 {
		logger.Warn("check: hint generation failed, using defaults", "error", err)
		o.cfg.Metrics.RecordFallback(metrics.FallbackHints)
		return potd.FallbackHints(n)
	}
	if len(hints) > n {
		hints = hints[:n]
	}
	return hints
}

// hintCount follows the number of hints the origin publishes, bounded to
// [2, MaxHints].
func (o *Orchestrator) hintCount(q potd.Question) int {
	n := len(q.Hints)
	if n < 2 {
		n = 2
	}
	if n > o.cfg.MaxHints {
		n = o.cfg.MaxHints
	}
	return n
}

// finish records the outcome in metrics, the history store, and the user
// registry, and builds the Result.
func (o *Orchestrator) finish(ctx context.Context, r run, user potd.User, outcome potd.Outcome, hints []string, err error, start time.Time) Result {
	res := Result{
		RunID:     r.id,
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Slug:      r.question.Slug,
		Outcome:   outcome,
		Hints:     hints,
		CheckedAt: o.cfg.Now().UTC(),
		Err:       err,
	}
	if err != nil {
		res.Error = err.Error()
	}

	o.cfg.Metrics.RecordCheck(outcome, time.Since(start))

	// Reporting must not be cut short by the per-user deadline.
	reportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.cfg.StatusTimeout)
	defer cancel()

	if o.cfg.History != nil {
		rec := potd.CheckRecord{
			RunID:     r.id,
			UserID:    user.ID,
			Username:  user.Username,
			Slug:      r.question.Slug,
			Outcome:   outcome,
			Detail:    res.Error,
			Trigger:   r.trigger,
			CheckedAt: res.CheckedAt,
		}
		if herr := o.cfg.History.Record(reportCtx, rec); herr != nil {
			o.cfg.Logger.Warn("check: recording history failed", "user", user.Username, "error", herr)
		}
	}

	if o.cfg.Status != nil && user.ID != "" {
		if serr := o.cfg.Status.ReportStatus(reportCtx, user.ID, outcome, res.CheckedAt); serr != nil {
			o.cfg.Logger.Warn("check: status push failed", "user", user.Username, "error", serr)
		}
	}
	return res
}
