// Package gemini generates motivational quotes and problem hints with the
// Gemini generateContent API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Rajat069/leetcode-reminder-bot/internal/check"
	"github.com/Rajat069/leetcode-reminder-bot/pkg/potd"
)

// maxResponseSize is the maximum response body size (1 MB).
const maxResponseSize = 1 << 20

var _ check.ContentGenerator = (*Generator)(nil)

// Generator implements check.ContentGenerator.
type Generator struct {
	config Config
	client *http.Client
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Generator. A nil httpClient gets one with cfg.Timeout.
func New(cfg Config, httpClient *http.Client, logger *slog.Logger) (*Generator, error) {
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
	if cfg.APIKey == "" {
		logger.Warn("gemini: no api key configured, default quote and hints will be used")
	}
	return &Generator{config: cfg, client: httpClient, logger: logger, now: time.Now}, nil
}

// Quote returns a movie quote formatted as "quote\n- Character (Movie)".
func (g *Generator) Quote(ctx context.Context) (string, error) {
	text, err := g.generate(ctx, buildQuotePrompt(g.now().UnixNano()), nil)
	if err != nil {
		return "", err
	}
	return strings.Trim(strings.TrimSpace(text), `"`), nil
}

// Hints returns up to count hints for q. The model is asked for a JSON
// array of strings; blank entries are dropped.
func (g *Generator) Hints(ctx context.Context, q potd.Question, count int) ([]string, error) {
	if count <= 0 {
		return nil, fmt.Errorf("gemini: invalid hint count %d", count)
	}

	text, err := g.generate(ctx, buildHintsPrompt(q, count), &schema{
		Type:  "ARRAY",
		Items: &schema{Type: "STRING"},
	})
	if err != nil {
		return nil, err
	}

	var raw []string
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("%w: gemini: decode hints: %w", potd.ErrContentGeneration, err)
	}

	hints := make([]string, 0, count)
	for _, h := range raw {
		if h = strings.TrimSpace(h); h != "" {
			hints = append(hints, h)
		}
		if len(hints) == count {
			break
		}
	}
	if len(hints) == 0 {
		return nil, ErrEmptyResponse
	}
	return hints, nil
}

// generate runs one generateContent call and returns the first candidate's
// text. A non-nil responseSchema switches the call to JSON mode.
func (g *Generator) generate(ctx context.Context, prompt string, responseSchema *schema) (string, error) {
	if g.config.APIKey == "" {
		return "", ErrNoAPIKey
	}

	req := generateRequest{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{Temperature: g.config.Temperature},
	}
	if responseSchema != nil {
		req.GenerationConfig.ResponseMimeType = "application/json"
		req.GenerationConfig.ResponseSchema = responseSchema
	}

	body, status, err := g.doPost(ctx, req)
	if err != nil {
		return "", err
	}
	if httpErr := mapHTTPError(status, body); httpErr != nil {
		return "", httpErr
	}

	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: gemini: unmarshal response: %w", potd.ErrContentGeneration, err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	text := resp.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (g *Generator) endpoint() string {
	return strings.TrimSuffix(g.config.BaseURL, "/") + "/models/" + url.PathEscape(g.config.Model) + ":generateContent"
}

// doPost sends the request and returns the body and status code. The body
// is limited to maxResponseSize bytes.
func (g *Generator) doPost(ctx context.Context, payload generateRequest) ([]byte, int, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("gemini: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(), bytes.NewReader(raw))
	if err != nil {
		return nil, 0, fmt.Errorf("gemini: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	// Header auth keeps the key out of URLs that end up in error strings.
	httpReq.Header.Set("x-goog-api-key", g.config.APIKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, 0, mapConnectionError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("gemini: read response: %w", err)
	}
	return body, resp.StatusCode, nil
}
