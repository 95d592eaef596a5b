package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))

// Init sets the process-wide logger. format is "text" or "json".
func Init(debug bool, format string) *slog.Logger {
	Logger = New(os.Stdout, debug, format)
	slog.SetDefault(Logger)
	return Logger
}

// New builds a logger writing to w.
func New(w io.Writer, debug bool, format string) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// With returns the shared logger with extra attributes attached.
func With(args ...any) *slog.Logger {
	return Logger.With(args...)
}

func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}
