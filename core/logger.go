package core

import (
	"fmt"
	"log"
	"strings"
)

// Logger receives the scheduler's out-of-band reporting: rejected calls,
// callback panics, and lifecycle notices (pool sized, worker stopped).
// Scheduling calls never raise these conditions at the caller, so the Logger
// is the only place they surface.
//
// Implementations must be safe for concurrent use; events arrive both from
// worker goroutines and from whatever goroutine invoked the scheduler.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field is one structured key/value attached to a log event.
type Field struct {
	Key   string
	Value any
}

// F builds a Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// DefaultLogger writes plain lines through the standard library logger. It is
// the fallback when no backend is configured; embedders wanting structured
// output plug in a real backend instead (see observability/zerologger).
type DefaultLogger struct{}

// NewDefaultLogger creates a DefaultLogger.
func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{}
}

func (l *DefaultLogger) Debug(msg string, fields ...Field) { l.write("DEBUG", msg, fields) }
func (l *DefaultLogger) Info(msg string, fields ...Field)  { l.write("INFO", msg, fields) }
func (l *DefaultLogger) Warn(msg string, fields ...Field)  { l.write("WARN", msg, fields) }
func (l *DefaultLogger) Error(msg string, fields ...Field) { l.write("ERROR", msg, fields) }

func (l *DefaultLogger) write(level, msg string, fields []Field) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", level, msg)
	for i, f := range fields {
		if i == 0 {
			b.WriteString(" {")
		} else {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %v", f.Key, f.Value)
	}
	if len(fields) > 0 {
		b.WriteString("}")
	}
	log.Println(b.String())
}

// NoOpLogger discards every event. Used by tests and by embedders that
// observe failures solely through the Metrics sink.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (l *NoOpLogger) Debug(msg string, fields ...Field) {}
func (l *NoOpLogger) Info(msg string, fields ...Field)  {}
func (l *NoOpLogger) Warn(msg string, fields ...Field)  {}
func (l *NoOpLogger) Error(msg string, fields ...Field) {}
