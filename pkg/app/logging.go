package app

import (
	"io"
	"log/slog"

	"github.com/Rajat069/leetcode-reminder-bot/internal/security"
)

// NewLogger builds the root logger. Every record passes through the
// redactor before it is formatted.
func NewLogger(w io.Writer, format string, level *slog.LevelVar, redactor *security.Redactor) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var inner slog.Handler
	if format == "json" {
		inner = slog.NewJSONHandler(w, opts)
	} else {
		inner = slog.NewTextHandler(w, opts)
	}
	return slog.New(security.NewRedactingHandler(inner, redactor))
}
