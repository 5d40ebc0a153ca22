// Package app assembles the reminder bot from its configuration and runs it.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Rajat069/leetcode-reminder-bot/internal/cache"
	"github.com/Rajat069/leetcode-reminder-bot/internal/check"
	"github.com/Rajat069/leetcode-reminder-bot/internal/config"
	"github.com/Rajat069/leetcode-reminder-bot/internal/core"
	"github.com/Rajat069/leetcode-reminder-bot/internal/cron"
	"github.com/Rajat069/leetcode-reminder-bot/internal/gateway"
	"github.com/Rajat069/leetcode-reminder-bot/internal/metrics"
	"github.com/Rajat069/leetcode-reminder-bot/internal/reload"
	"github.com/Rajat069/leetcode-reminder-bot/internal/schedule"
	"github.com/Rajat069/leetcode-reminder-bot/internal/security"
	"github.com/Rajat069/leetcode-reminder-bot/internal/telemetry"
	"github.com/Rajat069/leetcode-reminder-bot/internal/timeofday"
	"github.com/Rajat069/leetcode-reminder-bot/modules/gemini"
	"github.com/Rajat069/leetcode-reminder-bot/modules/history/sqlite"
	"github.com/Rajat069/leetcode-reminder-bot/modules/leetcode"
	"github.com/Rajat069/leetcode-reminder-bot/modules/smtp"
	"github.com/Rajat069/leetcode-reminder-bot/modules/userservice"
	"github.com/Rajat069/leetcode-reminder-bot/pkg/potd"
)

// Options tune how Build assembles the bot.
type Options struct {
	// ConfigPath is the file the configuration came from. Empty disables
	// the file watcher.
	ConfigPath string
	Version    string
	// LogOutput receives log records. Defaults to os.Stderr.
	LogOutput io.Writer
	// CheckOnStart runs one check over all users when Run begins, in
	// addition to cfg.Check.OnStart.
	CheckOnStart bool
}

// Bot holds every assembled component.
type Bot struct {
	Config       *config.Config
	Logger       *slog.Logger
	Level        *slog.LevelVar
	Redactor     *security.Redactor
	Audit        *security.AuditLogger
	Metrics      *metrics.Metrics
	Questions    *check.DailyQuestions
	Orchestrator *check.Orchestrator
	Users        *userservice.Client
	Scheduler    *schedule.Scheduler
	Reconciler   *schedule.Reconciler
	Loop         *schedule.Loop
	Cron         *cron.Scheduler
	History      *sqlite.Store     // nil when history is disabled
	Gateway      *gateway.Gateway  // nil when the gateway is disabled
	Telemetry    *telemetry.Provider

	opts      Options
	lifecycle *core.App
	closers   []io.Closer
}

// Build validates cfg and constructs the bot without starting anything.
// A missing required secret fails here, before any scheduling begins.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*Bot, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	cacheLoc, dayLoc, err := cfg.Locations()
	if err != nil {
		return nil, err
	}
	evictAt, err := timeofday.Parse(cfg.Cache.EvictAt)
	if err != nil {
		return nil, fmt.Errorf("app: cache.evict_at: %w", err)
	}
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}

	b := &Bot{Config: cfg, opts: opts, Level: new(slog.LevelVar)}
	built := false
	defer func() {
		if !built {
			b.Close()
		}
	}()

	b.Level.Set(level)
	b.Redactor = security.NewRedactor()
	b.Redactor.SetLiterals(cfg.Secrets()...)
	b.Logger = NewLogger(opts.LogOutput, cfg.Log.Format, b.Level, b.Redactor)
	b.lifecycle = core.NewApp(b.Logger, cfg.Gateway.ShutdownTimeout)

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("app: creating data dir: %w", err)
	}
	auditFile, err := os.OpenFile(filepath.Join(cfg.DataDir, "audit.jsonl"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("app: opening audit log: %w", err)
	}
	b.closers = append(b.closers, auditFile)
	b.Audit = security.NewAuditLogger(security.AuditLoggerConfig{
		Writer:   auditFile,
		Redactor: b.Redactor,
	})

	b.Telemetry, err = telemetry.Setup(ctx, telemetry.Config{
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		ServiceName: cfg.Telemetry.ServiceName,
		Version:     opts.Version,
		SampleRatio: cfg.Telemetry.Ratio(),
	}, b.Logger)
	if err != nil {
		return nil, err
	}
	b.lifecycle.Register("telemetry", b.Telemetry)

	b.Metrics = metrics.New()

	origin, err := leetcode.New(cfg.LeetCode, nil, b.Logger.With("module", "leetcode"))
	if err != nil {
		return nil, err
	}
	content, err := gemini.New(cfg.Gemini, nil, b.Logger.With("module", "gemini"))
	if err != nil {
		return nil, err
	}
	mailer, err := smtp.New(cfg.SMTP, b.Logger.With("module", "smtp"))
	if err != nil {
		return nil, err
	}
	b.Users, err = userservice.New(cfg.Users, nil, b.Logger.With("module", "userservice"))
	if err != nil {
		return nil, err
	}

	var history check.HistoryRecorder
	if cfg.History.IsEnabled() {
		b.History, err = sqlite.Open(ctx, cfg.History.Config)
		if err != nil {
			return nil, err
		}
		b.lifecycle.Register("history", b.History)
		history = b.History
	}

	var status check.StatusReporter
	if cfg.Users.StatusEnabled() {
		status = b.Users
	}

	questionCache := cache.NewTTL[potd.Question]()
	b.Questions = check.NewDailyQuestions(questionCache, origin, cfg.Cache.TTL, b.Metrics, b.Logger)
	b.Scheduler = schedule.NewScheduler(b.Logger, nil)

	// The reconciler registers jobs that call into the orchestrator, and
	// the orchestrator resolves users through the reconciler.
	var orch *check.Orchestrator
	b.Reconciler, err = schedule.NewReconciler(schedule.ReconcilerConfig{
		Scheduler: b.Scheduler,
		Source:    b.Users,
		Handler: func(ctx context.Context, userID string) error {
			return orch.CheckScheduled(ctx, userID)
		},
		EmptyPolicy: schedule.EmptyPolicy(cfg.Schedule.EmptyUserList),
		Metrics:     b.Metrics,
		Logger:      b.Logger,
	})
	if err != nil {
		return nil, err
	}
	orch, err = check.New(check.Config{
		Questions:   b.Questions,
		Submissions: origin,
		Content:     content,
		Mailer:      mailer,
		Status:      status,
		History:     history,
		Directory:   b.Reconciler,
		Metrics:     b.Metrics,
		DayLocation: dayLoc,
		MaxHints:    cfg.Check.MaxHints,
		UserTimeout: cfg.Check.UserTimeout,
		Logger:      b.Logger,
	})
	if err != nil {
		return nil, err
	}
	b.Orchestrator = orch

	loopCfg := schedule.LoopConfig{
		Tick:              cfg.Schedule.Tick,
		ReconcileInterval: cfg.Schedule.ReconcileInterval,
		Logger:            b.Logger,
	}
	if opts.CheckOnStart || cfg.Check.OnStart {
		// On the loop goroutine, so the startup run and scheduled checks
		// never overlap.
		loopCfg.OnStart = b.startupCheck
	}
	b.Loop, err = schedule.NewLoop(loopCfg, b.Scheduler, b.Reconciler)
	if err != nil {
		return nil, err
	}

	b.Cron = cron.NewScheduler(b.Logger, cron.WithLocation(cacheLoc))
	if err := b.Cron.RegisterJob(&cron.CacheEvictionJob{
		Cache:  questionCache,
		At:     evictAt,
		Logger: b.Logger,
	}); err != nil {
		return nil, err
	}
	if b.History != nil {
		if err := b.Cron.RegisterJob(&cron.HistoryPruneJob{
			Store:     b.History,
			Retention: cfg.History.Retention,
			Logger:    b.Logger,
		}); err != nil {
			return nil, err
		}
	}
	b.lifecycle.Register("cron", b.Cron)

	if cfg.Gateway.IsEnabled() {
		deps := gateway.Deps{
			Checker:   b.Orchestrator,
			Schedule:  b.Scheduler,
			Reconcile: b.Loop,
			Metrics:   b.Metrics,
			Audit:     b.Audit,
			Logger:    b.Logger,
		}
		if b.History != nil {
			deps.History = b.History
		}
		b.Gateway, err = gateway.New(gateway.Config{
			Bind:              cfg.Gateway.Bind,
			APIKey:            cfg.Gateway.APIKey,
			RequestsPerSecond: cfg.Gateway.RequestsPerSecond,
			Burst:             cfg.Gateway.Burst,
			ShutdownTimeout:   cfg.Gateway.ShutdownTimeout,
		}, deps)
		if err != nil {
			return nil, err
		}
		b.lifecycle.Register("gateway", b.Gateway)
	}

	built = true
	return b, nil
}

// CheckAll fetches every active user and checks each one. It is the
// one-shot run used by the check command and the startup check.
func (b *Bot) CheckAll(ctx context.Context) (check.RunSummary, error) {
	users, err := b.Users.FetchUsers(ctx)
	if err != nil {
		return check.RunSummary{}, fmt.Errorf("app: fetching users: %w", err)
	}
	return b.Orchestrator.RunAll(ctx, users)
}

// Run starts every component and blocks until ctx is cancelled or a
// component fails. Components are stopped in reverse order on return.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.lifecycle.Start(); err != nil {
		return err
	}
	defer b.lifecycle.Stop()

	handler := reload.NewHandler(reload.HandlerConfig{
		Level:      b.Level,
		Reconciler: b.Reconciler,
		Loop:       b.Loop,
		Redactor:   b.Redactor,
		Audit:      b.Audit,
		Logger:     b.Logger,
	}, b.Config)

	err := b.serve(ctx, handler)
	sdNotify(b.Logger, "STOPPING=1")
	b.Logger.Info("shutdown complete")
	return err
}

// Close releases resources held by a bot that was built but not run, or
// whose Run has returned. Safe to call more than once.
func (b *Bot) Close() {
	if b.lifecycle != nil {
		b.lifecycle.Stop()
	}
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].Close(); err != nil && b.Logger != nil {
			b.Logger.Warn("app: close failed", "error", err)
		}
	}
	b.closers = nil
}

// startupCheck runs the optional check over all users at startup.
func (b *Bot) startupCheck(ctx context.Context) {
	start := time.Now()
	summary, err := b.CheckAll(ctx)
	if err != nil {
		b.Logger.Error("startup check failed", "error", err)
		return
	}
	b.Logger.Info("startup check complete",
		"run_id", summary.RunID,
		"solved", summary.Solved,
		"reminded", summary.Reminded,
		"errors", summary.Errors,
		"duration", time.Since(start).Round(time.Millisecond),
	)
}
