// Package loom provides a fixed pool of cooperative worker loops with
// per-worker task queues and timer sets.
//
// Each worker owns one dedicated goroutine for its entire lifetime. A tick
// alternates between draining the worker's bounded task queue completely,
// sleeping for the configured step, and advancing the worker's timers. Work
// submitted to the same worker id is strictly serialized, so callbacks that
// only touch that worker's private state need no locks.
//
// # Quick Start
//
//	sched, err := loom.New(loom.Config{Workers: 2, StepMs: 10, QueueCapacity: 1000})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer sched.Stop()
//
//	sched.SubmitTo(0, func() {
//		// Runs on worker 0's goroutine, serialized with everything
//		// else submitted to worker 0.
//	})
//
//	id := sched.SetInterval(func() {
//		// Fires on worker 1 every 200ms, anchored to creation time.
//	}, 200, 1)
//	defer sched.ClearInterval(id, 1)
//
// # Key Concepts
//
// Admission: a worker's queue holds at most QueueCapacity tasks. Submitting
// beyond that drops the task and returns ErrBackpressure; producers are
// never blocked.
//
// Timers: SetTimeout fires once, SetInterval repeats with its k-th firing
// anchored at creation + period*k. Firing accuracy is bounded by the step. A
// panicking callback is reported and absorbed; a repeating timer keeps its
// schedule, a one-shot is discarded after the failed attempt.
//
// Pause/Resume: pure flag flips per worker. Queued tasks stay queued, timers
// stay registered, and the published fps/qps rates read zero until resumed.
//
// Rates: each worker publishes frames/second (loop iterations) and
// queries/second (tasks executed), recomputed once per second and readable
// from any goroutine via Rate.
//
// Failure policy: scheduling calls never raise callback failures at the
// caller. Invalid calls return sentinel errors or values (TimerNone,
// IdentityNone) and are reported to the configured Logger; a failing
// callback never terminates its worker or other scheduled work.
package loom
