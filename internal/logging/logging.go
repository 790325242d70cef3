// Package logging holds the slog conventions shared by speedmap packages:
// logger construction, operation and error helpers, and context plumbing.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

type contextKey struct{}

// Levels lists the level names ParseLevel accepts.
var Levels = []string{"debug", "info", "warn", "error"}

// ParseLevel maps a configured level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch name {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
}

// NewLogger builds a text or JSON slog logger writing to w.
func NewLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// LogOperation records a named step at info level.
func LogOperation(logger *slog.Logger, operation string, attrs ...slog.Attr) {
	logger.LogAttrs(context.Background(), slog.LevelInfo, operation, attrs...)
}

// LogError records a failure with its error attached.
func LogError(logger *slog.Logger, msg string, err error, attrs ...slog.Attr) {
	attrs = append([]slog.Attr{slog.String("error", err.Error())}, attrs...)
	logger.LogAttrs(context.Background(), slog.LevelError, msg, attrs...)
}

// SafeCloseWithLogging closes c and logs, rather than returns, any error.
func SafeCloseWithLogging(c io.Closer, logger *slog.Logger, name string) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		LogError(logger, "failed to close resource", err, slog.String("resource", name))
	}
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger stored by WithLogger, or slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}
