// Package userservice talks to the external user-management service: it
// lists registered users and records check outcomes against them.
package userservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Rajat069/leetcode-reminder-bot/internal/check"
	"github.com/Rajat069/leetcode-reminder-bot/internal/schedule"
	"github.com/Rajat069/leetcode-reminder-bot/pkg/potd"
)

const (
	maxResponseSize = 4 * 1024 * 1024
	apiKeyHeader    = "X-API-Key"
	statusPaused    = "paused"
)

// ErrUnavailable wraps every transport or HTTP failure.
var ErrUnavailable = errors.New("userservice: unavailable")

// Compile-time interface guards.
var (
	_ schedule.UserSource  = (*Client)(nil)
	_ check.StatusReporter = (*Client)(nil)
)

// Client is the user service HTTP client.
type Client struct {
	config Config
	http   *http.Client
	logger *slog.Logger
}

// New creates a Client. A nil httpClient gets one with cfg.Timeout.
func New(cfg Config, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{config: cfg, http: httpClient, logger: logger}, nil
}

// userDTO is the service's wire representation of a user.
type userDTO struct {
	ID               flexibleID `json:"id"`
	Username         string     `json:"username"`
	LeetcodeUsername string     `json:"leetcodeUsername"`
	Email            string     `json:"email"`
	ReminderTimes    []string   `json:"reminderTimes"`
	Status           string     `json:"status"`
}

// flexibleID accepts both numeric and string identifiers.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("userservice: id must be string or number: %w", err)
	}
	*f = flexibleID(n.String())
	return nil
}

// FetchUsers implements schedule.UserSource. Records without a LeetCode
// username or email are skipped. Paused users are returned with Paused set
// so callers can tell "everyone paused" from an empty registry.
func (c *Client) FetchUsers(ctx context.Context) ([]potd.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("userservice: create request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.config.APIKey)
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var dtos []userDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, fmt.Errorf("%w: decode users: %w", ErrUnavailable, err)
	}

	users := make([]potd.User, 0, len(dtos))
	for _, d := range dtos {
		username := d.LeetcodeUsername
		if username == "" {
			username = d.Username
		}
		if username == "" || d.Email == "" {
			c.logger.Warn("userservice: skipping incomplete user record", "id", string(d.ID))
			continue
		}
		users = append(users, potd.User{
			ID:            string(d.ID),
			Username:      username,
			Email:         d.Email,
			ReminderTimes: d.ReminderTimes,
			Paused:        strings.EqualFold(d.Status, statusPaused),
		})
	}

	c.logger.Debug("userservice: users loaded", "received", len(dtos), "valid", len(users))
	return users, nil
}

type statusRequest struct {
	Status    potd.Outcome `json:"status"`
	CheckedAt time.Time    `json:"checkedAt"`
}

// ReportStatus implements check.StatusReporter. It is a no-op when
// status reporting is disabled.
func (c *Client) ReportStatus(ctx context.Context, userID string, outcome potd.Outcome, checkedAt time.Time) error {
	if !c.config.StatusEnabled() {
		return nil
	}
	if userID == "" {
		return errors.New("userservice: empty user id")
	}

	raw, err := json.Marshal(statusRequest{Status: outcome, CheckedAt: checkedAt.UTC()})
	if err != nil {
		return fmt.Errorf("userservice: marshal status: %w", err)
	}

	endpoint := strings.TrimSuffix(c.config.URL, "/") + "/" + url.PathEscape(userID) + "/status"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("userservice: create request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	_, err = c.do(req)
	return err
}

// do executes req and returns the body of a 2xx response.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return nil, fmt.Errorf("%w: %s %s: HTTP %d: %s", ErrUnavailable, req.Method, req.URL.Path, resp.StatusCode, msg)
	}
	return body, nil
}
