package config

import (
	"errors"
	"os"
	"path/filepath"
)

// FileName is the default configuration file name.
const FileName = "reminderbot.yaml"

// Candidates returns the configuration paths searched when no explicit
// path is given, in priority order.
func Candidates() []string {
	var paths []string
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		paths = append(paths, filepath.Join(dir, "reminderbot", FileName))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "reminderbot", FileName))
	}
	return append(paths, FileName)
}

// ResolvePath returns explicit when set, otherwise the first existing
// candidate. It returns "" when no configuration file exists.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, p := range Candidates() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadResolved loads the file found by ResolvePath, or falls back to
// Default when there is none. The returned path is "" in that case.
func LoadResolved(explicit string) (*Config, string, error) {
	path := ResolvePath(explicit)
	if path == "" {
		return Default(), "", nil
	}
	cfg, err := Load(path)
	if err != nil {
		if explicit == "" && errors.Is(err, os.ErrNotExist) {
			return Default(), "", nil
		}
		return nil, path, err
	}
	return cfg, path, nil
}
