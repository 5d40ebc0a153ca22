package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // named zones on hosts without a zoneinfo database

	"github.com/Rajat069/leetcode-reminder-bot/internal/timeofday"
)

// ErrConfigurationMissing marks a required secret or setting that is not
// set. Startup aborts before any scheduling begins.
var ErrConfigurationMissing = errors.New("config: required configuration missing")

// Validate checks a defaulted Config and aggregates every problem.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	errs = append(errs, validateSecrets(cfg)...)

	if _, err := ParseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("config: log.format must be text or json, got %q", cfg.Log.Format))
	}

	for _, err := range []error{
		cfg.LeetCode.Validate(),
		cfg.Gemini.Validate(),
		cfg.SMTP.Validate(),
		cfg.Users.Validate(),
		cfg.History.Validate(),
	} {
		if err != nil {
			errs = append(errs, err)
		}
	}

	errs = append(errs, validateSchedule(cfg)...)
	errs = append(errs, validateGateway(cfg.Gateway)...)

	if r := cfg.Telemetry.Ratio(); r < 0 || r > 1 {
		errs = append(errs, fmt.Errorf("config: telemetry.sample_ratio must be in [0, 1], got %v", r))
	}

	return errors.Join(errs...)
}

func validateSecrets(cfg *Config) []error {
	var errs []error
	missing := func(name, env string) {
		errs = append(errs, fmt.Errorf("%w: %s (env %s)", ErrConfigurationMissing, name, env))
	}
	if cfg.SMTP.Username == "" {
		missing("smtp.username", "SMTP_USER")
	}
	if cfg.SMTP.Password == "" {
		missing("smtp.password", "GMAIL_APP_PASSWORD")
	}
	if cfg.Users.APIKey == "" {
		missing("users.api_key", "USER_SERVICE_API_KEY")
	}
	return errs
}

func validateSchedule(cfg *Config) []error {
	var errs []error

	if cfg.Schedule.Tick > time.Minute {
		errs = append(errs, fmt.Errorf("config: schedule.tick %s must not exceed 1m", cfg.Schedule.Tick))
	}
	if cfg.Schedule.ReconcileInterval < cfg.Schedule.Tick {
		errs = append(errs, fmt.Errorf("config: schedule.reconcile_interval %s is shorter than the tick", cfg.Schedule.ReconcileInterval))
	}
	switch cfg.Schedule.EmptyUserList {
	case EmptyUsersKeep, EmptyUsersClear:
	default:
		errs = append(errs, fmt.Errorf("config: schedule.empty_user_list must be %q or %q, got %q",
			EmptyUsersKeep, EmptyUsersClear, cfg.Schedule.EmptyUserList))
	}

	if _, err := timeofday.Parse(cfg.Cache.EvictAt); err != nil {
		errs = append(errs, fmt.Errorf("config: cache.evict_at: %w", err))
	}
	if _, err := time.LoadLocation(cfg.Cache.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("config: cache.timezone: %w", err))
	}
	if _, err := time.LoadLocation(cfg.Check.DayTimezone); err != nil {
		errs = append(errs, fmt.Errorf("config: check.day_timezone: %w", err))
	}
	if cfg.Check.MaxHints < 2 {
		errs = append(errs, fmt.Errorf("config: check.max_hints must be at least 2, got %d", cfg.Check.MaxHints))
	}
	return errs
}

func validateGateway(g GatewayConfig) []error {
	if !g.IsEnabled() {
		return nil
	}
	var errs []error
	_, portStr, err := net.SplitHostPort(g.Bind)
	if err != nil {
		errs = append(errs, fmt.Errorf("config: gateway.bind: %w", err))
	} else if port, err := strconv.Atoi(portStr); err != nil || port < 0 || port > 65535 {
		errs = append(errs, fmt.Errorf("config: gateway.bind: invalid port %q", portStr))
	}
	if g.APIKey == "" {
		errs = append(errs, fmt.Errorf("%w: gateway.api_key", ErrConfigurationMissing))
	}
	if g.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("config: gateway.requests_per_second must not be negative"))
	}
	return errs
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("config: unknown log level %q", s)
	}
}

// Locations returns the parsed cache and day timezones. Call after Validate.
func (c *Config) Locations() (cacheLoc, dayLoc *time.Location, err error) {
	if cacheLoc, err = time.LoadLocation(c.Cache.Timezone); err != nil {
		return nil, nil, fmt.Errorf("config: cache.timezone: %w", err)
	}
	if dayLoc, err = time.LoadLocation(c.Check.DayTimezone); err != nil {
		return nil, nil, fmt.Errorf("config: check.day_timezone: %w", err)
	}
	return cacheLoc, dayLoc, nil
}
