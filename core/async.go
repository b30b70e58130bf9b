package core

import (
	"runtime/debug"
	"time"
)

// asyncRetryDelay is the fixed pause between retry attempts. There is no
// backoff growth and no attempt cap: with retry enabled the callback is
// re-run until it succeeds, so callers must make it idempotent and
// eventually successful.
const asyncRetryDelay = 100 * time.Millisecond

// RunAsync executes callback on its own goroutine, independent of the worker
// pool. A panic is reported to the logger and never propagates. With retry
// set, the callback is re-executed after a fixed short delay until one
// attempt returns normally; this is the one place in the scheduler where
// unbounded retry is intentional, trading bounded resource use for
// availability.
func RunAsync(callback func(), retry bool) {
	RunAsyncWith(NewDefaultLogger(), callback, retry)
}

// RunAsyncWith is RunAsync with an explicit logger for failure reports.
func RunAsyncWith(logger Logger, callback func(), retry bool) {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	if callback == nil {
		logger.Error("async callback is nil")
		return
	}

	// Retry is a loop rather than resubmission so repeated failures cost
	// neither stack depth nor extra goroutines.
	go func() {
		for attempt := 1; ; attempt++ {
			if invokeAsync(logger, callback, attempt) {
				return
			}
			if !retry {
				return
			}
			time.Sleep(asyncRetryDelay)
		}
	}()
}

// invokeAsync runs one attempt, reporting a recovered panic.
// Returns true when the callback returned normally.
func invokeAsync(logger Logger, callback func(), attempt int) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("async callback panicked",
				F("attempt", attempt),
				F("panic", r),
				F("stack", string(debug.Stack())))
		}
	}()
	callback()
	return true
}

// RunAsync1 is RunAsync parameterized over one typed argument.
func RunAsync1[A any](callback func(A), a A, retry bool) {
	if callback == nil {
		RunAsync(nil, retry)
		return
	}
	RunAsync(func() { callback(a) }, retry)
}

// RunAsync2 is RunAsync parameterized over two typed arguments.
func RunAsync2[A, B any](callback func(A, B), a A, b B, retry bool) {
	if callback == nil {
		RunAsync(nil, retry)
		return
	}
	RunAsync(func() { callback(a, b) }, retry)
}

// RunAsync3 is RunAsync parameterized over three typed arguments.
func RunAsync3[A, B, C any](callback func(A, B, C), a A, b B, c C, retry bool) {
	if callback == nil {
		RunAsync(nil, retry)
		return
	}
	RunAsync(func() { callback(a, b, c) }, retry)
}
