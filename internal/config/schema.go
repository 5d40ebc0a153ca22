// Package config handles YAML configuration loading, environment variable
// expansion, defaults, and validation for the reminder bot.
package config

import (
	"time"

	"github.com/Rajat069/leetcode-reminder-bot/modules/gemini"
	"github.com/Rajat069/leetcode-reminder-bot/modules/history/sqlite"
	"github.com/Rajat069/leetcode-reminder-bot/modules/leetcode"
	"github.com/Rajat069/leetcode-reminder-bot/modules/smtp"
	"github.com/Rajat069/leetcode-reminder-bot/modules/userservice"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// DataDir holds local state such as the check history database.
	DataDir string `yaml:"data_dir"`

	Log       LogConfig          `yaml:"log"`
	LeetCode  leetcode.Config    `yaml:"leetcode"`
	Gemini    gemini.Config      `yaml:"gemini"`
	SMTP      smtp.Config        `yaml:"smtp"`
	Users     userservice.Config `yaml:"users"`
	Schedule  ScheduleConfig     `yaml:"schedule"`
	Cache     CacheConfig        `yaml:"cache"`
	Check     CheckConfig        `yaml:"check"`
	Gateway   GatewayConfig      `yaml:"gateway"`
	History   HistoryConfig      `yaml:"history"`
	Telemetry TelemetryConfig    `yaml:"telemetry"`
}

// LogConfig controls the root logger.
type LogConfig struct {
	// Level is one of debug, info, warn or error. Reloadable.
	Level string `yaml:"level"`
	// Format is text or json.
	Format string `yaml:"format"`
}

// Empty user list policies.
const (
	EmptyUsersKeep  = "keep"
	EmptyUsersClear = "clear"
)

// ScheduleConfig controls the polling loop and reconciler.
type ScheduleConfig struct {
	// Tick is the polling granularity of the job scheduler.
	Tick time.Duration `yaml:"tick"`
	// ReconcileInterval is how often the user list is refetched. Reloadable.
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
	// EmptyUserList is keep or clear. Reloadable.
	EmptyUserList string `yaml:"empty_user_list"`
}

// CacheConfig controls the problem-of-the-day cache and its daily eviction.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
	// EvictAt is the daily "HH:MM" eviction time in Timezone.
	EvictAt  string `yaml:"evict_at"`
	Timezone string `yaml:"timezone"`
}

// CheckConfig controls per-user checks.
type CheckConfig struct {
	// DayTimezone defines the calendar day a submission must fall on.
	DayTimezone string        `yaml:"day_timezone"`
	MaxHints    int           `yaml:"max_hints"`
	UserTimeout time.Duration `yaml:"user_timeout"`
	// OnStart runs one check over all users at startup.
	OnStart bool `yaml:"on_start"`
}

// GatewayConfig controls the HTTP trigger and admin server.
type GatewayConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Bind    string `yaml:"bind"`
	// APIKey guards the trigger and admin endpoints. Defaults to the user
	// service API key.
	APIKey string `yaml:"api_key"`
	// RequestsPerSecond throttles /trigger-check. Zero disables throttling.
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// IsEnabled reports whether the gateway should be started.
func (g GatewayConfig) IsEnabled() bool {
	return g.Enabled == nil || *g.Enabled
}

// HistoryConfig controls the local check history store.
type HistoryConfig struct {
	Enabled *bool `yaml:"enabled"`
	sqlite.Config `yaml:",inline"`
}

// IsEnabled reports whether check history is recorded.
func (h HistoryConfig) IsEnabled() bool {
	return h.Enabled == nil || *h.Enabled
}

// TelemetryConfig controls trace export.
type TelemetryConfig struct {
	// Endpoint is the OTLP/HTTP collector endpoint. Empty disables export.
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	ServiceName string  `yaml:"service_name"`
	// SampleRatio is the fraction of root spans sampled, in [0, 1].
	// Unset means 1; an explicit 0 samples nothing.
	SampleRatio *float64 `yaml:"sample_ratio"`
}

// Ratio returns the effective sample ratio.
func (t TelemetryConfig) Ratio() float64 {
	if t.SampleRatio == nil {
		return 1
	}
	return *t.SampleRatio
}

// Secrets returns every credential value in the configuration, for log
// redaction. Empty values are included and left to the caller to drop.
func (c *Config) Secrets() []string {
	return []string{
		c.Gemini.APIKey,
		c.SMTP.Password,
		c.Users.APIKey,
		c.Gateway.APIKey,
	}
}
