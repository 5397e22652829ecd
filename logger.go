package olctree

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with olctree-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithComponent adds a component field to the logger.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("component", name),
	}
}

// LogInsert logs an insert operation.
func (l *Logger) LogInsert(ctx context.Context, key uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "insert failed",
			"key", key,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "insert completed",
			"key", key,
		)
	}
}

// LogLookup logs a lookup operation.
func (l *Logger) LogLookup(ctx context.Context, key uint64, found bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "lookup failed",
			"key", key,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "lookup completed",
			"key", key,
			"found", found,
		)
	}
}

// LogUpdate logs an update operation.
func (l *Logger) LogUpdate(ctx context.Context, key uint64, found bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "update failed",
			"key", key,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "update completed",
			"key", key,
			"found", found,
		)
	}
}

// LogScan logs a range scan.
func (l *Logger) LogScan(ctx context.Context, start uint64, visited int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "scan failed",
			"start", start,
			"visited", visited,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "scan completed",
			"start", start,
			"visited", visited,
		)
	}
}
