package loom

import "github.com/loomkit/loom/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the loom package for most use cases.

// Task is the unit of work (Closure)
type Task = core.Task

// Logger is the structured logging sink the scheduler reports to
type Logger = core.Logger

// Field is a key-value pair for structured logging
type Field = core.Field

// Metrics is the sink for per-worker gauges and counters
type Metrics = core.Metrics

// Clock supplies monotonic milliseconds
type Clock = core.Clock

// PoolStats is a pool-wide snapshot
type PoolStats = core.PoolStats

// Sentinel errors (see core/errors.go for the taxonomy)
var (
	ErrInvalidConfiguration = core.ErrInvalidConfiguration
	ErrInvalidArgument      = core.ErrInvalidArgument
	ErrOutOfRange           = core.ErrOutOfRange
	ErrBackpressure         = core.ErrBackpressure
)

// Convenience constructors and helpers
var (
	F                 = core.F
	NewDefaultLogger  = core.NewDefaultLogger
	NewNoOpLogger     = core.NewNoOpLogger
	NewMonotonicClock = core.NewMonotonicClock
)

// RunAsync executes a callback off the worker pool, optionally retrying
// indefinitely on panic. The typed-argument arities RunAsync1/2/3 are generic
// and live in core.
var (
	RunAsync     = core.RunAsync
	RunAsyncWith = core.RunAsyncWith
)
