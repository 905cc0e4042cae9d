package logger

import (
	"io"
	"log/slog"
)

// NewTestHandler discards output; use it where tests need a logger but not its lines.
func NewTestHandler(level slog.Level) slog.Handler {
	return slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: level})
}
