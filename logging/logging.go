// Package logging configures slog to write human-readable lines to the
// console and JSON records to weekly rotating files, and exposes
// package-level helpers usable anywhere in the service.
package logging

import (
	"context"
	"log/slog"
	"os"
)

var defaultLogger *slog.Logger

// Init sets up the global logger. When the rotating file writer cannot be
// created the service keeps running with console-only logging.
func Init(logDir string, retentionWeeks int) {
	console := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})

	writer, err := NewRotatingWriter(logDir, retentionWeeks)
	if err != nil {
		defaultLogger = slog.New(console)
		slog.SetDefault(defaultLogger)
		defaultLogger.Error("File logging disabled", "error", err)
		return
	}

	fileHandler := slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: slog.LevelInfo})
	defaultLogger = slog.New(&teeHandler{handlers: []slog.Handler{console, fileHandler}})
	slog.SetDefault(defaultLogger)
}

// Logger returns the configured logger, falling back to a stderr text logger
// before Init has run.
func Logger() *slog.Logger {
	if defaultLogger != nil {
		return defaultLogger
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func Info(msg string, args ...any)  { Logger().Info(msg, args...) }
func Warn(msg string, args ...any)  { Logger().Warn(msg, args...) }
func Error(msg string, args ...any) { Logger().Error(msg, args...) }
func Debug(msg string, args ...any) { Logger().Debug(msg, args...) }

// teeHandler fans every record out to all underlying handlers.
type teeHandler struct {
	handlers []slog.Handler
}

func (t *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range t.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (t *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &teeHandler{handlers: next}
}

func (t *teeHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		next[i] = h.WithGroup(name)
	}
	return &teeHandler{handlers: next}
}
