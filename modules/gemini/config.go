package gemini

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the Gemini client configuration.
type Config struct {
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	Temperature *float64      `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Defaults fills zero-valued fields.
func (c *Config) Defaults() {
	if c.Model == "" {
		c.Model = "gemini-2.5-flash-preview-09-2025"
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if c.Temperature == nil {
		t := 0.7
		c.Temperature = &t
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}

// Validate checks the configuration after Defaults. A missing API key is
// not an error: the generator then always falls back.
func (c *Config) Validate() error {
	var errs []error
	if c.Model == "" {
		errs = append(errs, errors.New("gemini: model is required"))
	}
	if t := *c.Temperature; t < 0 || t > 2 {
		errs = append(errs, fmt.Errorf("gemini: temperature %v out of range [0, 2]", t))
	}
	return errors.Join(errs...)
}
