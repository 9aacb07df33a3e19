package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// defaultLogger is read from request and background goroutines alike.
var defaultLogger atomic.Pointer[slog.Logger]

// Initialize sets up the global logger with the specified level and format
func Initialize(level, format string) {
	InitializeWriter(os.Stdout, level, format)
}

// InitializeWriter is Initialize with an explicit destination.
func InitializeWriter(w io.Writer, level, format string) {
	l := build(w, level, format)
	defaultLogger.Store(l)
	slog.SetDefault(l)
}

func build(w io.Writer, level, format string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn", "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// Get returns the default logger, installing an info/text logger on stdout
// when Initialize has not run.
func Get() *slog.Logger {
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	defaultLogger.CompareAndSwap(nil, build(os.Stdout, "info", "text"))
	return defaultLogger.Load()
}

// Debug logs a debug message
func Debug(msg string, args ...any) { Get().Debug(msg, args...) }

// Info logs an info message
func Info(msg string, args ...any) { Get().Info(msg, args...) }

// Warn logs a warning message
func Warn(msg string, args ...any) { Get().Warn(msg, args...) }

// Error logs an error message
func Error(msg string, args ...any) { Get().Error(msg, args...) }
