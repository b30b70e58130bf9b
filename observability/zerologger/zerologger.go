// Package zerologger adapts a zerolog.Logger to the scheduler's Logger
// interface, for embedders that want structured JSON diagnostics.
package zerologger

import (
	"github.com/loomkit/loom/core"
	"github.com/rs/zerolog"
)

// Logger wraps a zerolog.Logger as a core.Logger.
type Logger struct {
	l zerolog.Logger
}

var _ core.Logger = (*Logger)(nil)

// New creates a Logger writing through the given zerolog.Logger.
func New(l zerolog.Logger) *Logger {
	return &Logger{l: l}
}

// Debug logs a debug message.
func (z *Logger) Debug(msg string, fields ...core.Field) {
	z.emit(z.l.Debug(), msg, fields)
}

// Info logs an info message.
func (z *Logger) Info(msg string, fields ...core.Field) {
	z.emit(z.l.Info(), msg, fields)
}

// Warn logs a warning message.
func (z *Logger) Warn(msg string, fields ...core.Field) {
	z.emit(z.l.Warn(), msg, fields)
}

// Error logs an error message.
func (z *Logger) Error(msg string, fields ...core.Field) {
	z.emit(z.l.Error(), msg, fields)
}

func (z *Logger) emit(e *zerolog.Event, msg string, fields []core.Field) {
	for _, f := range fields {
		e = e.Interface(f.Key, f.Value)
	}
	e.Msg(msg)
}
