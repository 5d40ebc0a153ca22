package smtp

import (
	"errors"
	"fmt"
	"net/mail"
	"time"
)

// Security modes.
const (
	SecurityStartTLS = "starttls"
	SecurityTLS      = "tls"
	SecurityNone     = "none"
)

// Config holds the SMTP delivery configuration.
type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// From defaults to Username.
	From     string `yaml:"from"`
	FromName string `yaml:"from_name"`
	// Security is one of starttls, tls or none.
	Security string        `yaml:"security"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Defaults fills zero-valued fields.
func (c *Config) Defaults() {
	if c.Host == "" {
		c.Host = "smtp.gmail.com"
	}
	if c.Port == 0 {
		c.Port = 587
	}
	if c.From == "" {
		c.From = c.Username
	}
	if c.FromName == "" {
		c.FromName = "LeetCode Reminder Bot"
	}
	if c.Security == "" {
		c.Security = SecurityStartTLS
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}

// Validate checks the configuration after Defaults.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("smtp: invalid port %d", c.Port))
	}
	if c.From == "" {
		errs = append(errs, errors.New("smtp: from (or username) is required"))
	} else if _, err := mail.ParseAddress(c.From); err != nil {
		errs = append(errs, fmt.Errorf("smtp: invalid from address %q: %w", c.From, err))
	}
	if (c.Username == "") != (c.Password == "") {
		errs = append(errs, errors.New("smtp: username and password must be set together"))
	}
	switch c.Security {
	case SecurityStartTLS, SecurityTLS, SecurityNone:
	default:
		errs = append(errs, fmt.Errorf("smtp: unknown security mode %q", c.Security))
	}
	return errors.Join(errs...)
}
