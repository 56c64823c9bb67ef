// Package logging carries a request-scoped structured logger through context.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
)

// Logger is a slog logger with accumulated request fields.
type Logger struct {
	base *slog.Logger
}

// NewLogger creates a new logger with the given handler. A nil handler uses the slog default.
func NewLogger(h slog.Handler) *Logger {
	if h == nil {
		return &Logger{base: slog.Default()}
	}
	return &Logger{base: slog.New(h)}
}

// NewHandler builds the process handler: "json" for machine output, anything else is text.
func NewHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// ParseLevel accepts debug, info, warn and error, case-insensitively.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// WithField returns a new logger with an additional field.
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{base: l.base.With(key, value)}
}

// WithFields returns a new logger with additional fields, added in key order.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]any, 0, len(fields)*2)
	for _, k := range keys {
		args = append(args, k, fields[k])
	}
	return &Logger{base: l.base.With(args...)}
}

func (l *Logger) Debug(msg string, args ...any) { l.base.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.base.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.base.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.base.Error(msg, args...) }

// Slog exposes the underlying logger.
func (l *Logger) Slog() *slog.Logger {
	return l.base
}

type loggerKey struct{}

// FromContext extracts the logger from context, falling back to the slog default.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey{}).(*Logger); ok {
		return l
	}
	return &Logger{base: slog.Default()}
}

// ToContext adds the logger to context.
func ToContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}
