package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// envPattern matches ${VAR} and ${VAR:-default} expressions.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-((?:[^}\\]|\\.)*))?\}`)

// Load reads a YAML configuration file, expands environment variables,
// parses it into a Config, and applies environment fallbacks and defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return Parse(raw, path)
}

// Parse is Load for in-memory YAML. source names the input in errors.
func Parse(raw []byte, source string) (*Config, error) {
	expanded, err := expandEnv(raw)
	if err != nil {
		return nil, fmt.Errorf("config: expanding variables in %s: %w", source, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", source, err)
	}

	cfg.applyEnv(os.LookupEnv)
	cfg.defaults()
	return &cfg, nil
}

// Default returns a configuration built only from environment variables
// and defaults, for running without a config file.
func Default() *Config {
	cfg := &Config{Version: "1"}
	cfg.applyEnv(os.LookupEnv)
	cfg.defaults()
	return cfg
}

// expandEnv replaces ${VAR} and ${VAR:-default} patterns in raw YAML bytes.
// Returns an error listing all unresolved variables (no default, no env value).
func expandEnv(raw []byte) ([]byte, error) {
	var errs []error

	result := envPattern.ReplaceAllFunc(raw, func(match []byte) []byte {
		subs := envPattern.FindSubmatch(match)
		name := string(subs[1])
		hasDefault := len(subs) > 2 && subs[2] != nil
		defaultVal := ""
		if hasDefault {
			defaultVal = string(subs[2])
		}

		value, ok := os.LookupEnv(name)
		if ok {
			return []byte(value)
		}

		if hasDefault {
			return []byte(defaultVal)
		}

		errs = append(errs, fmt.Errorf("unresolved variable: %s", name))
		return match
	})

	return result, errors.Join(errs...)
}

// applyEnv fills unset secrets and endpoints from the conventional
// environment variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if *dst != "" {
			return
		}
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	set(&c.SMTP.Username, "SMTP_USER")
	set(&c.SMTP.Password, "GMAIL_APP_PASSWORD")
	set(&c.SMTP.Host, "SMTP_SERVER")
	set(&c.Gemini.APIKey, "GEMINI_API_KEY")
	set(&c.Users.URL, "USER_SERVICE_URL")
	set(&c.Users.APIKey, "USER_SERVICE_API_KEY")
	set(&c.LeetCode.Endpoint, "LEETCODE_API_URL")

	if c.SMTP.Port == 0 {
		if v, ok := lookup("SMTP_PORT"); ok {
			var port int
			if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
				c.SMTP.Port = port
			}
		}
	}
}

// defaults fills zero-valued fields with sensible defaults.
func (c *Config) defaults() {
	if c.Version == "" {
		c.Version = "1"
	}
	if c.DataDir == "" {
		c.DataDir = defaultDataDir()
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	c.LeetCode.Defaults()
	c.Gemini.Defaults()
	c.SMTP.Defaults()
	c.Users.Defaults()

	if c.Schedule.Tick <= 0 {
		c.Schedule.Tick = time.Second
	}
	if c.Schedule.ReconcileInterval <= 0 {
		c.Schedule.ReconcileInterval = 30 * time.Minute
	}
	if c.Schedule.EmptyUserList == "" {
		c.Schedule.EmptyUserList = EmptyUsersKeep
	}

	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 24 * time.Hour
	}
	if c.Cache.Timezone == "" {
		c.Cache.Timezone = "Asia/Kolkata"
	}
	if c.Cache.EvictAt == "" {
		c.Cache.EvictAt = "05:30"
	}

	if c.Check.DayTimezone == "" {
		c.Check.DayTimezone = "Asia/Kolkata"
	}
	if c.Check.MaxHints <= 0 {
		c.Check.MaxHints = 3
	}
	if c.Check.UserTimeout <= 0 {
		c.Check.UserTimeout = 2 * time.Minute
	}

	if c.Gateway.Bind == "" {
		c.Gateway.Bind = "127.0.0.1:8000"
	}
	if c.Gateway.APIKey == "" {
		c.Gateway.APIKey = c.Users.APIKey
	}
	if c.Gateway.Burst <= 0 {
		c.Gateway.Burst = 5
	}
	if c.Gateway.ShutdownTimeout <= 0 {
		c.Gateway.ShutdownTimeout = 10 * time.Second
	}

	c.History.Defaults()
	if c.History.Path == "" {
		c.History.Path = filepath.Join(c.DataDir, "history.db")
	}

	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "reminderbot"
	}
	if c.Telemetry.SampleRatio == nil {
		ratio := 1.0
		c.Telemetry.SampleRatio = &ratio
	}
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "reminderbot")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "reminderbot")
	}
	return "data"
}
