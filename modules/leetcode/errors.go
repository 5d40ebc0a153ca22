package leetcode

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/Rajat069/leetcode-reminder-bot/pkg/potd"
)

// ErrUserNotFound is returned when the origin does not know the username.
var ErrUserNotFound = errors.New("leetcode: user not found")

// mapHTTPError maps a non-2xx status to a sentinel error. Returns nil for
// 2xx status codes.
func mapHTTPError(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return fmt.Errorf("%w: leetcode: HTTP %d: %s", potd.ErrOriginUnavailable, statusCode, msg)
}

// mapConnectionError maps network-level errors to potd.ErrOriginUnavailable.
// Context errors pass through unchanged.
func mapConnectionError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", potd.ErrOriginUnavailable, err)
	}
	return fmt.Errorf("leetcode: %w", err)
}

// mapGraphQLErrors folds GraphQL-level errors into a single error.
func mapGraphQLErrors(errs []graphQLError) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	joined := strings.Join(msgs, "; ")
	if strings.Contains(strings.ToLower(joined), "does not exist") {
		return fmt.Errorf("%w: %s", ErrUserNotFound, joined)
	}
	return fmt.Errorf("%w: leetcode: %s", potd.ErrOriginUnavailable, joined)
}
