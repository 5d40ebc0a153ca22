package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Rajat069/leetcode-reminder-bot/pkg/potd"
)

// ErrNoAPIKey is returned by every call when no API key is configured.
var ErrNoAPIKey = fmt.Errorf("%w: gemini: api key not configured", potd.ErrContentGeneration)

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = fmt.Errorf("%w: gemini: empty response", potd.ErrContentGeneration)

// mapHTTPError maps a non-2xx status to an error wrapping
// potd.ErrContentGeneration. Returns nil for 2xx status codes.
func mapHTTPError(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	var msg string
	var apiErr apiError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		msg = apiErr.Error.Message
	} else {
		msg = string(body)
	}
	return fmt.Errorf("%w: gemini: HTTP %d: %s", potd.ErrContentGeneration, statusCode, msg)
}

// mapConnectionError wraps transport errors. Context errors pass through
// unchanged.
func mapConnectionError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: gemini: %w", potd.ErrContentGeneration, err)
}
