package core

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting scheduler metrics.
// Implementations can send metrics to monitoring systems (Prometheus, StatsD, etc.).
//
// Methods are called from worker goroutines on the hot path; implementations
// should be non-blocking and fast to avoid distorting the tick cadence.
type Metrics interface {
	// RecordRates publishes the per-second rates computed by a worker at the
	// close of a metrics window: fps is loop iterations per second, qps is
	// tasks executed per second. Both are truncated integers.
	RecordRates(workerID int, fps, qps int)

	// RecordTaskProcessed counts one task executed by a worker.
	// Implementations typically maintain both a per-worker and a pool-wide
	// monotonic counter from this single call.
	RecordTaskProcessed(workerID int)

	// RecordTaskRejected counts a task dropped at admission.
	//
	// Parameters:
	// - workerID: The target worker
	// - reason: Why the task was rejected (e.g., "backpressure")
	RecordTaskRejected(workerID int, reason string)

	// RecordCallbackPanic counts a panic recovered from a task or timer
	// callback.
	RecordCallbackPanic(workerID int, panicInfo any)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

// RecordRates is a no-op.
func (m *NilMetrics) RecordRates(workerID int, fps, qps int) {}

// RecordTaskProcessed is a no-op.
func (m *NilMetrics) RecordTaskProcessed(workerID int) {}

// RecordTaskRejected is a no-op.
func (m *NilMetrics) RecordTaskRejected(workerID int, reason string) {}

// RecordCallbackPanic is a no-op.
func (m *NilMetrics) RecordCallbackPanic(workerID int, panicInfo any) {}
