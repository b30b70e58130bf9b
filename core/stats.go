package core

// PoolStats is a point-in-time snapshot of the whole pool, suitable for
// periodic export (see observability/prometheus). Values are gathered from
// atomics without stopping the workers, so counters may be up to one step
// stale relative to each other.
type PoolStats struct {
	// Workers is the configured pool size.
	Workers int

	// Queued is the total number of tasks waiting across all workers.
	Queued int

	// Processed is the monotonic count of tasks executed across all workers
	// since the current pool generation started.
	Processed uint64

	// Running reports whether the pool currently has live worker loops.
	Running bool
}
