package sqlite

import (
	"fmt"
	"path/filepath"
	"time"
)

const (
	defaultBusyTimeout = 5000
	defaultDBFile      = "history.db"
)

// Config holds the check history store configuration.
type Config struct {
	// Path is the database file path. Empty disables the store.
	Path string `yaml:"path"`

	// WAL enables WAL journal mode. Defaults to true.
	WAL *bool `yaml:"wal"`

	// BusyTimeout is the milliseconds to wait on a busy lock. Defaults to 5000.
	BusyTimeout int `yaml:"busy_timeout"`

	// Retention bounds how long records are kept. Zero keeps them forever.
	Retention time.Duration `yaml:"retention"`
}

// Defaults fills zero-valued fields.
func (c *Config) Defaults() {
	if c.WAL == nil {
		t := true
		c.WAL = &t
	}
	if c.BusyTimeout == 0 {
		c.BusyTimeout = defaultBusyTimeout
	}
}

func (c *Config) walEnabled() bool {
	return c.WAL == nil || *c.WAL
}

// Validate checks the configuration after Defaults.
func (c *Config) Validate() error {
	if c.BusyTimeout < 0 {
		return fmt.Errorf("sqlite: busy_timeout must be non-negative, got %d", c.BusyTimeout)
	}
	if c.Retention < 0 {
		return fmt.Errorf("sqlite: retention must be non-negative, got %s", c.Retention)
	}
	return nil
}

// DefaultPath returns the database path inside dataDir.
func DefaultPath(dataDir string) string {
	return filepath.Join(dataDir, defaultDBFile)
}
