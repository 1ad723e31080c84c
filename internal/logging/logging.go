// Package logging defines the side-channel Logger every stage that needs to
// emit telemetry accepts as a collaborator, the same way
// ai/providers/middlewares/logger takes a Logger rather than writing
// to a package-level global. Grounded on original_source's use of the
// standard logging module for structured "extra"-field debug records, e.g.
// the arbitration decision log in original_source/checker/arbitration.py.
package logging

import (
	"context"
	"fmt"
	"log/slog"
)

// Logger is the narrow interface arbitration, the checker, and other stages
// log through. Debugf carries structured telemetry that is expensive or
// noisy in production; Infof carries user-relevant progress notes.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
}

// NopLogger discards everything. It is the default when a caller supplies
// no Logger.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Infof(string, ...any)  {}

var _ Logger = NopLogger{}

// StdLogger adapts an *slog.Logger to the Logger interface.
type StdLogger struct {
	logger *slog.Logger
}

// NewStdLogger wraps an *slog.Logger. A nil logger falls back to
// slog.Default().
func NewStdLogger(l *slog.Logger) StdLogger {
	if l == nil {
		l = slog.Default()
	}
	return StdLogger{logger: l}
}

func (s StdLogger) Debugf(format string, args ...any) {
	s.logger.Log(context.Background(), slog.LevelDebug, fmt.Sprintf(format, args...))
}

func (s StdLogger) Infof(format string, args ...any) {
	s.logger.Log(context.Background(), slog.LevelInfo, fmt.Sprintf(format, args...))
}

var _ Logger = StdLogger{}
