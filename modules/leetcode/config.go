package leetcode

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config holds the LeetCode client configuration.
type Config struct {
	// Endpoint is the GraphQL endpoint.
	Endpoint string `yaml:"endpoint"`
	// SiteURL prefixes the relative problem links returned by the API.
	SiteURL string `yaml:"site_url"`
	// Timeout bounds a single request.
	Timeout time.Duration `yaml:"timeout"`
	// SubmissionLimit is the number of recent accepted submissions fetched.
	SubmissionLimit int `yaml:"submission_limit"`
	// RequestsPerSecond throttles outbound requests. Zero disables throttling.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	// Burst is the limiter burst size.
	Burst int `yaml:"burst"`
}

// Defaults fills zero-valued fields.
func (c *Config) Defaults() {
	if c.Endpoint == "" {
		c.Endpoint = "https://leetcode.com/graphql"
	}
	if c.SiteURL == "" {
		c.SiteURL = "https://leetcode.com"
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.SubmissionLimit <= 0 {
		c.SubmissionLimit = 50
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
}

// Validate checks the configuration after Defaults.
func (c *Config) Validate() error {
	var errs []error
	if _, err := url.ParseRequestURI(c.Endpoint); err != nil {
		errs = append(errs, fmt.Errorf("leetcode: invalid endpoint %q: %w", c.Endpoint, err))
	}
	if c.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("leetcode: requests_per_second must not be negative"))
	}
	if c.SubmissionLimit > 100 {
		errs = append(errs, fmt.Errorf("leetcode: submission_limit %d exceeds 100", c.SubmissionLimit))
	}
	return errors.Join(errs...)
}
