// Package logging provides the structured logger shared by handlers and
// services, and the request logging middleware.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a key/value logger backed by zerolog.
type Logger struct {
	zl zerolog.Logger
}

// NewLogger builds the process logger. Development mode writes coloured
// console output at debug level; otherwise JSON at info level.
func NewLogger(isDevelopment bool) *Logger {
	level := "info"
	if isDevelopment {
		level = "debug"
	}
	return New(os.Stdout, level, isDevelopment)
}

// New builds a logger writing to out at the given level.
func New(out io.Writer, level string, pretty bool) *Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	zl := zerolog.New(out).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Logger()

	return &Logger{zl: zl}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// ParseLevel converts a level name to a zerolog.Level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithFields returns a child logger that always carries the given fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	return &Logger{zl: l.zl.With().Fields(fields).Logger()}
}

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(keyvals ...any) *Logger {
	return &Logger{zl: l.zl.With().Fields(keyvals).Logger()}
}

func (l *Logger) Debug(msg string, keyvals ...any) {
	l.Log(context.Background(), zerolog.DebugLevel, msg, keyvals...)
}

func (l *Logger) Info(msg string, keyvals ...any) {
	l.Log(context.Background(), zerolog.InfoLevel, msg, keyvals...)
}

func (l *Logger) Warn(msg string, keyvals ...any) {
	l.Log(context.Background(), zerolog.WarnLevel, msg, keyvals...)
}

func (l *Logger) Error(msg string, keyvals ...any) {
	l.Log(context.Background(), zerolog.ErrorLevel, msg, keyvals...)
}

// Log writes msg at level with alternating key/value pairs.
func (l *Logger) Log(ctx context.Context, level zerolog.Level, msg string, keyvals ...any) {
	e := l.zl.WithLevel(level).Ctx(ctx)
	if len(keyvals) > 0 {
		e = e.Fields(keyvals)
	}
	e.Msg(msg)
}
