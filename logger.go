package membuf

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with membuf-specific context.
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
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithImage adds an image name field to the logger.
func (l *Logger) WithImage(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("image", name),
	}
}

// WithSize adds a size field to the logger.
func (l *Logger) WithSize(size int) *Logger {
	return &Logger{
		Logger: l.Logger.With("size", size),
	}
}

// LogOpen logs an image open operation.
func (l *Logger) LogOpen(ctx context.Context, name string, size int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed",
			"image", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "open completed",
			"image", name,
			"size", size,
		)
	}
}

// LogPut logs an image upload operation.
func (l *Logger) LogPut(ctx context.Context, name string, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "put failed",
			"image", name,
			"size", size,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "put completed",
			"image", name,
			"size", size,
		)
	}
}

// LogDelete logs an image delete operation.
func (l *Logger) LogDelete(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"image", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "delete completed",
			"image", name,
		)
	}
}

// LogSearch logs a signature scan over an image.
func (l *Logger) LogSearch(ctx context.Context, pattern string, matches int) {
	l.DebugContext(ctx, "search completed",
		"pattern", pattern,
		"matches", matches,
	)
}
