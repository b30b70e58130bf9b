package core

import "errors"

// Error taxonomy for scheduling calls.
//
// Only ErrInvalidConfiguration is fatal (it aborts pool initialization).
// Everything else is recovered locally: the call returns the sentinel error
// (or -1 for timer ids), reports the condition to the Logger, and the worker
// pool keeps running. Callback panics never surface as errors at all; they
// are absorbed inside the worker loop and reported out-of-band.
var (
	// ErrInvalidConfiguration indicates a non-positive worker count, step or
	// queue capacity at pool initialization.
	ErrInvalidConfiguration = errors.New("loom: invalid configuration")

	// ErrInvalidArgument indicates a nil callback.
	ErrInvalidArgument = errors.New("loom: invalid argument")

	// ErrOutOfRange indicates a worker id outside [0, workerCount).
	ErrOutOfRange = errors.New("loom: worker id out of range")

	// ErrBackpressure indicates the target worker's queue was already at
	// capacity; the task was dropped, not queued and not retried.
	ErrBackpressure = errors.New("loom: task queue full")
)
