// Package logger wraps log/slog with the attributes discosync logs by.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Logger is a slog.Logger with record and change scoping helpers.
type Logger struct {
	*slog.Logger
}

// Config selects level, format and destination. Output defaults to stdout.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // text, json
	Output io.Writer
}

// ParseLevel maps a level name to a slog level. Unknown names log at info.
func ParseLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler = slog.NewTextHandler(out, opts)
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	}
	return &Logger{Logger: slog.New(handler)}
}

func (l *Logger) with(args ...any) *Logger {
	return &Logger{Logger: l.With(args...)}
}

// WithComponent tags entries with the subsystem that wrote them.
func (l *Logger) WithComponent(component string) *Logger {
	return l.with("component", component)
}

// WithRecord scopes entries to one stored record.
func (l *Logger) WithRecord(collection, id string) *Logger {
	return l.with("collection", collection, "id", id)
}

// WithChange scopes entries to one captured change.
func (l *Logger) WithChange(changeID, kind string) *Logger {
	return l.with("change_id", changeID, "kind", kind)
}

// Default logs text at info level to stdout.
func Default() *Logger {
	return New(Config{Level: "info", Format: "text"})
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(Config{Output: io.Discard})
}
