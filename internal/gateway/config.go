package gateway

import "time"

// Config holds HTTP gateway configuration.
type Config struct {
	Bind string
	// APIKey is compared against the X-API-Key header on protected routes.
	APIKey string
	// RequestsPerSecond throttles /trigger-check. Zero disables throttling.
	RequestsPerSecond float64
	Burst             int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	ShutdownTimeout   time.Duration
}

// defaults fills zero values with sensible defaults.
func (c *Config) defaults() {
	if c.Bind == "" {
		c.Bind = "127.0.0.1:8000"
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	// A manual check waits on the origin, the content generator and SMTP.
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 2 * time.Minute
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
}
