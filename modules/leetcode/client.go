// Package leetcode fetches the daily challenge and recent accepted
// submissions from the LeetCode GraphQL API.
package leetcode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Rajat069/leetcode-reminder-bot/internal/check"
	"github.com/Rajat069/leetcode-reminder-bot/pkg/potd"
)

// maxResponseSize is the maximum response body size (2 MB).
const maxResponseSize = 2 * 1024 * 1024

// Compile-time interface guards.
var (
	_ check.QuestionSource   = (*Client)(nil)
	_ check.SubmissionSource = (*Client)(nil)
)

// Client is a LeetCode GraphQL client.
type Client struct {
	config  Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
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

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		config:  cfg,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		logger:  logger,
	}, nil
}

// DailyQuestion implements check.QuestionSource.
func (c *Client) DailyQuestion(ctx context.Context) (potd.Question, error) {
	var data dailyData
	err := c.query(ctx, graphQLRequest{
		OperationName: "questionOfToday",
		Query:         dailyQuestionQuery,
	}, &data)
	if err != nil {
		return potd.Question{}, err
	}
	if data.Challenge == nil || data.Challenge.Question.TitleSlug == "" {
		return potd.Question{}, fmt.Errorf("%w: leetcode: no active daily challenge", potd.ErrOriginUnavailable)
	}

	ch := data.Challenge
	q := potd.Question{
		Title:          ch.Question.Title,
		Slug:           ch.Question.TitleSlug,
		Difficulty:     ch.Question.Difficulty,
		AcceptanceRate: ch.Question.AcRate,
		Hints:          ch.Question.Hints,
		Link:           c.absoluteLink(ch.Link, ch.Question.TitleSlug),
		Date:           ch.Date,
	}
	for _, tag := range ch.Question.TopicTags {
		q.Tags = append(q.Tags, tag.Name)
	}

	c.logger.Debug("leetcode: daily question fetched", "slug", q.Slug, "date", q.Date)
	return q, nil
}

// RecentSubmissions implements check.SubmissionSource. Entries with an
// unparseable timestamp are skipped.
func (c *Client) RecentSubmissions(ctx context.Context, username string) ([]potd.Submission, error) {
	if username == "" {
		return nil, fmt.Errorf("leetcode: empty username")
	}

	var data submissionsData
	err := c.query(ctx, graphQLRequest{
		OperationName: "recentAcSubmissions",
		Query:         recentSubmissionsQuery,
		Variables: map[string]any{
			"username": username,
			"limit":    c.config.SubmissionLimit,
		},
	}, &data)
	if err != nil {
		return nil, err
	}

	subs := make([]potd.Submission, 0, len(data.List))
	for _, s := range data.List {
		secs, err := strconv.ParseInt(s.Timestamp, 10, 64)
		if err != nil {
			c.logger.Warn("leetcode: skipping submission with bad timestamp",
				"user", username, "slug", s.TitleSlug, "timestamp", s.Timestamp)
			continue
		}
		subs = append(subs, potd.Submission{Slug: s.TitleSlug, Timestamp: time.Unix(secs, 0).UTC()})
	}
	return subs, nil
}

func (c *Client) absoluteLink(link, slug string) string {
	base := strings.TrimSuffix(c.config.SiteURL, "/")
	switch {
	case strings.HasPrefix(link, "http://"), strings.HasPrefix(link, "https://"):
		return link
	case link != "":
		return base + "/" + strings.TrimPrefix(link, "/")
	default:
		return base + "/problems/" + slug + "/"
	}
}

// query posts a GraphQL request and decodes its data into out.
func (c *Client) query(ctx context.Context, req graphQLRequest, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, status, err := c.doPost(ctx, req)
	if err != nil {
		return err
	}
	if httpErr := mapHTTPError(status, body); httpErr != nil {
		return httpErr
	}

	var resp graphQLResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%w: leetcode: unmarshal response: %w", potd.ErrOriginUnavailable, err)
	}
	if err := mapGraphQLErrors(resp.Errors); err != nil {
		return err
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return fmt.Errorf("%w: leetcode: empty data", potd.ErrOriginUnavailable)
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("%w: leetcode: unmarshal data: %w", potd.ErrOriginUnavailable, err)
	}
	return nil
}

// doPost sends the request and returns the body and status code. The body
// is limited to maxResponseSize bytes.
func (c *Client) doPost(ctx context.Context, payload graphQLRequest) ([]byte, int, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("leetcode: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(raw))
	if err != nil {
		return nil, 0, fmt.Errorf("leetcode: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Referer", strings.TrimSuffix(c.config.SiteURL, "/")+"/")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, 0, mapConnectionError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("leetcode: read response: %w", err)
	}
	return body, resp.StatusCode, nil
}
