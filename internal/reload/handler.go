package reload

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Rajat069/leetcode-reminder-bot/internal/config"
	"github.com/Rajat069/leetcode-reminder-bot/internal/schedule"
	"github.com/Rajat069/leetcode-reminder-bot/internal/security"
)

// PolicySetter is the part of the reconciler a reload touches.
type PolicySetter interface {
	SetEmptyPolicy(p schedule.EmptyPolicy) error
}

// LoopControl is the part of the polling loop a reload touches.
type LoopControl interface {
	SetReconcileInterval(d time.Duration)
	ForceReconcile()
}

// HandlerConfig wires the components a reload updates. Nil fields are
// skipped.
type HandlerConfig struct {
	Level      *slog.LevelVar
	Reconciler PolicySetter
	Loop       LoopControl
	Redactor   *security.Redactor
	Audit      *security.AuditLogger
	Logger     *slog.Logger
}

// Handler applies reloadable settings from a fresh configuration: the log
// level, the empty user list policy and the reconcile interval. Every
// applied reload also refreshes redaction literals and forces a reconcile.
type Handler struct {
	cfg     HandlerConfig
	current *config.Config
}

// NewHandler creates a reload handler. current is the configuration the
// process started with and is used to warn about settings that need a restart.
func NewHandler(cfg HandlerConfig, current *config.Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Handler{cfg: cfg, current: current}
}

// HandleReload loads a fresh config from disk, validates it, and applies it.
// An invalid file leaves the running configuration untouched.
func (h *Handler) HandleReload(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	return h.Apply(ctx, cfg)
}

// Apply applies an already validated configuration.
func (h *Handler) Apply(ctx context.Context, cfg *config.Config) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("reload: context cancelled before reload: %w", err)
	}

	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	policy := schedule.EmptyPolicy(cfg.Schedule.EmptyUserList)

	if h.cfg.Reconciler != nil {
		if err := h.cfg.Reconciler.SetEmptyPolicy(policy); err != nil {
			return fmt.Errorf("reload: %w", err)
		}
	}
	if h.cfg.Level != nil {
		h.cfg.Level.Set(level)
	}
	if h.cfg.Redactor != nil {
		h.cfg.Redactor.SetLiterals(cfg.Secrets()...)
	}
	if h.cfg.Loop != nil {
		h.cfg.Loop.SetReconcileInterval(cfg.Schedule.ReconcileInterval)
		h.cfg.Loop.ForceReconcile()
	}

	if h.current != nil {
		if pending := restartRequired(h.current, cfg); len(pending) > 0 {
			h.cfg.Logger.Warn("reload: some changes take effect after a restart", "settings", pending)
		}
	}
	h.current = cfg

	h.cfg.Audit.Log(security.AuditEvent{
		Type:   security.EventConfigReload,
		Detail: "applied",
		Metadata: map[string]string{
			"log_level":          level.String(),
			"empty_user_list":    string(policy),
			"reconcile_interval": cfg.Schedule.ReconcileInterval.String(),
		},
	})
	h.cfg.Logger.Info("configuration reloaded",
		"log_level", level.String(),
		"empty_user_list", policy,
		"reconcile_interval", cfg.Schedule.ReconcileInterval,
	)
	return nil
}

// restartRequired names the settings that differ between old and next but
// are only read at startup.
func restartRequired(old, next *config.Config) []string {
	checks := []struct {
		name    string
		changed bool
	}{
		{"log.format", old.Log.Format != next.Log.Format},
		{"schedule.tick", old.Schedule.Tick != next.Schedule.Tick},
		{"cache", old.Cache != next.Cache},
		{"check", old.Check != next.Check},
		{"leetcode", old.LeetCode != next.LeetCode},
		{"smtp", old.SMTP != next.SMTP},
		{"users", old.Users.URL != next.Users.URL || old.Users.APIKey != next.Users.APIKey},
		{"gemini", old.Gemini.APIKey != next.Gemini.APIKey || old.Gemini.Model != next.Gemini.Model},
		{"gateway", old.Gateway.Bind != next.Gateway.Bind || old.Gateway.APIKey != next.Gateway.APIKey},
		{"history", old.History.Path != next.History.Path},
		{"telemetry", old.Telemetry.Endpoint != next.Telemetry.Endpoint ||
			old.Telemetry.Insecure != next.Telemetry.Insecure ||
			old.Telemetry.ServiceName != next.Telemetry.ServiceName ||
			old.Telemetry.Ratio() != next.Telemetry.Ratio()},
	}
	var names []string
	for _, c := range checks {
		if c.changed {
			names = append(names, c.name)
		}
	}
	return names
}
