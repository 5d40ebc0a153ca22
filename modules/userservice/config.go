package userservice

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config holds the user-management service client configuration.
type Config struct {
	// URL is the user collection endpoint.
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
	// ReportStatus enables the per-check status push.
	ReportStatus *bool `yaml:"report_status"`
}

// Defaults fills zero-valued fields.
func (c *Config) Defaults() {
	if c.URL == "" {
		c.URL = "http://localhost:8081/api/users"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.ReportStatus == nil {
		on := true
		c.ReportStatus = &on
	}
}

// StatusEnabled reports whether outcomes are pushed back to the service.
func (c *Config) StatusEnabled() bool {
	return c.ReportStatus == nil || *c.ReportStatus
}

// Validate checks the configuration after Defaults.
func (c *Config) Validate() error {
	var errs []error
	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("userservice: invalid url %q", c.URL))
	}
	if c.APIKey == "" {
		errs = append(errs, errors.New("userservice: api_key is required"))
	}
	return errors.Join(errs...)
}
