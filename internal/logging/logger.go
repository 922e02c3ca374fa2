// Package logging wraps zerolog with component-scoped child loggers.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const DefaultLevel = "warn"

type Logger struct {
	zl zerolog.Logger
}

// New writes to w at level. A nil w selects a console writer on stderr.
func New(w io.Writer, level string) *Logger {
	if w == nil {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	zl := zerolog.New(w).With().Timestamp().Logger().Level(ParseLevel(level))
	return &Logger{zl: zl}
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// Sub tags every event with the component name.
func (l *Logger) Sub(component string) *Logger {
	if l == nil {
		return Nop()
	}
	return &Logger{zl: l.zl.With().Str("component", component).Logger()}
}

func (l *Logger) Debug() *zerolog.Event {
	zl := l.zerolog()
	return zl.Debug()
}

func (l *Logger) Info() *zerolog.Event {
	zl := l.zerolog()
	return zl.Info()
}

func (l *Logger) Warn() *zerolog.Event {
	zl := l.zerolog()
	return zl.Warn()
}

func (l *Logger) Error() *zerolog.Event {
	zl := l.zerolog()
	return zl.Error()
}

func (l *Logger) Zerolog() zerolog.Logger { return l.zerolog() }

func (l *Logger) zerolog() zerolog.Logger {
	if l == nil {
		return zerolog.Nop()
	}
	return l.zl
}

func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "silent", "off":
		return zerolog.Disabled
	default:
		return zerolog.WarnLevel
	}
}

func ValidLevel(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace", "debug", "info", "warn", "warning", "error", "silent", "off":
		return true
	default:
		return false
	}
}
