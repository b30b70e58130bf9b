package core

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// metricsWindowMillis is the length of the rate-computation window.
const metricsWindowMillis = 1000

// WorkerOptions configures a single worker. All collaborator fields are
// optional; zero values get safe defaults.
type WorkerOptions struct {
	// Step is the fixed sleep between ticks. It bounds both CPU use and
	// timer/metric granularity: timer accuracy is at best one step.
	Step time.Duration

	// QueueCapacity is the hard admission limit of the task queue.
	QueueCapacity int

	// Logger receives callback failures and lifecycle notices.
	Logger Logger

	// Metrics receives per-second rates and task counters.
	Metrics Metrics

	// Clock supplies monotonic milliseconds.
	Clock Clock

	// Timers supplies and reclaims Timer records.
	Timers *Recycler[Timer]
}

func (o WorkerOptions) withDefaults() WorkerOptions {
	if o.Step <= 0 {
		o.Step = 10 * time.Millisecond
	}
	if o.QueueCapacity <= 0 {
		o.QueueCapacity = 1024
	}
	if o.Logger == nil {
		o.Logger = NewDefaultLogger()
	}
	if o.Metrics == nil {
		o.Metrics = &NilMetrics{}
	}
	if o.Clock == nil {
		o.Clock = NewMonotonicClock()
	}
	if o.Timers == nil {
		o.Timers = NewTimerRecycler()
	}
	return o
}

// Worker is one logical scheduling unit bound to exactly one dedicated
// goroutine for its entire lifetime.
//
// Each tick the worker drains its task queue completely, sleeps for the
// configured step, then advances its timer set. Everything submitted to one
// worker executes strictly serialized on its goroutine. A long task blocks
// the whole worker, including its timers, until it returns or panics; there
// is no suspension mid-task.
type Worker struct {
	id    int
	step  time.Duration
	queue *TaskQueue

	// paused is flipped by the control surface from any goroutine and read
	// once per tick. Pausing neither drains nor cancels work: queued tasks
	// stay queued, timers stay registered but their trigger comparisons are
	// skipped.
	paused atomic.Bool

	// Last-published rates, written by the worker goroutine, read by anyone.
	// Staleness of at most one step is acceptable.
	fps atomic.Int64
	qps atomic.Int64

	processed atomic.Uint64

	// Loop-local bookkeeping, touched only by the worker goroutine.
	frames   int64
	queries  int64
	windowMs int64
	lastTick int64

	// Active timers are owned exclusively by the worker goroutine; other
	// goroutines reach them only through the staging lists.
	timers        []*Timer
	addMu         sync.Mutex
	pendingAdd    []*Timer
	removeMu      sync.Mutex
	pendingRemove []int64

	logger   Logger
	metrics  Metrics
	clock    Clock
	recycler *Recycler[Timer]
}

// NewWorker creates a worker with the given stable id. The worker does not
// tick until Run is called on its dedicated goroutine.
func NewWorker(id int, opts WorkerOptions) *Worker {
	opts = opts.withDefaults()
	return &Worker{
		id:       id,
		step:     opts.Step,
		queue:    NewTaskQueue(opts.QueueCapacity),
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		clock:    opts.Clock,
		recycler: opts.Timers,
	}
}

// ID returns the worker's stable identity.
func (w *Worker) ID() int {
	return w.id
}

// Submit appends a task to this worker's queue.
//
// Returns ErrInvalidArgument for a nil task and ErrBackpressure when the
// queue is at capacity; in the latter case the task is dropped, not queued,
// and the rejection is reported to the logger and metrics sink. This is the
// system's only backpressure mechanism: producers are never blocked.
func (w *Worker) Submit(task Task) error {
	if task == nil {
		return ErrInvalidArgument
	}
	if !w.queue.TryPush(task) {
		w.logger.Error("task dropped: queue full",
			F("worker", w.id),
			F("capacity", w.queue.Cap()))
		w.metrics.RecordTaskRejected(w.id, "backpressure")
		return ErrBackpressure
	}
	return nil
}

// Pause stops task and timer processing after the current tick.
// Idempotent; safe from any goroutine.
func (w *Worker) Pause() {
	w.paused.Store(true)
}

// Resume restarts task and timer processing.
// Idempotent; safe from any goroutine.
func (w *Worker) Resume() {
	w.paused.Store(false)
}

// IsPaused reports the current pause flag.
func (w *Worker) IsPaused() bool {
	return w.paused.Load()
}

// Rates returns the last-published frames/second and tasks/second.
// Both read 0 while the worker is paused.
func (w *Worker) Rates() (fps, qps int) {
	return int(w.fps.Load()), int(w.qps.Load())
}

// Processed returns the monotonic count of tasks this worker has executed.
func (w *Worker) Processed() uint64 {
	return w.processed.Load()
}

// QueueLen returns the current task queue depth.
func (w *Worker) QueueLen() int {
	return w.queue.Len()
}

// DiscardQueued drops every task still waiting in the queue, releasing their
// references. Called during teardown and pool replacement, after the loop has
// been interrupted: queued work on a stopped or replaced worker is never
// delivered.
func (w *Worker) DiscardQueued() {
	w.queue.Clear()
}

// Run is the worker loop. It must be called on the worker's dedicated
// goroutine and blocks until ctx is cancelled. Cancellation is observed at
// the per-step sleep, the loop's single suspension point; remaining queued
// work is not drained on exit.
func (w *Worker) Run(ctx context.Context) {
	sleep := time.NewTimer(time.Hour)
	sleep.Stop()
	defer sleep.Stop()

	w.lastTick = w.clock.NowMillis()

	for {
		if w.paused.Load() {
			if !w.await(ctx, sleep) {
				break
			}
			w.resetRates()
			// Refresh so resuming does not see one giant delta.
			w.lastTick = w.clock.NowMillis()
			continue
		}

		w.accumulateWindow()
		w.drainQueue()
		if !w.await(ctx, sleep) {
			break
		}
		w.frames++
		w.tickTimers(w.clock.NowMillis())
	}

	w.logger.Info("worker stopped", F("worker", w.id))
}

// await sleeps one step, returning false if ctx was cancelled instead.
func (w *Worker) await(ctx context.Context, sleep *time.Timer) bool {
	sleep.Reset(w.step)
	select {
	case <-ctx.Done():
		return false
	case <-sleep.C:
		return true
	}
}

// accumulateWindow advances the one-second metrics window and publishes
// fps/qps when it closes.
func (w *Worker) accumulateWindow() {
	now := w.clock.NowMillis()
	w.windowMs += now - w.lastTick
	w.lastTick = now

	if w.windowMs < metricsWindowMillis {
		return
	}
	fps := w.frames * 1000 / w.windowMs
	qps := w.queries * 1000 / w.windowMs
	w.fps.Store(fps)
	w.qps.Store(qps)
	w.metrics.RecordRates(w.id, int(fps), int(qps))
	w.frames = 0
	w.queries = 0
	w.windowMs = 0
}

// resetRates zeroes published rates and window counters. Called every paused
// tick; the metrics sink only hears about the transition to zero once.
func (w *Worker) resetRates() {
	wasFPS := w.fps.Swap(0)
	wasQPS := w.qps.Swap(0)
	if wasFPS != 0 || wasQPS != 0 {
		w.metrics.RecordRates(w.id, 0, 0)
	}
	w.frames = 0
	w.queries = 0
	w.windowMs = 0
}

// drainQueue executes every queued task before returning, so bursts are
// processed without a per-task sleep. One failing task never stops the drain
// or poisons the queue.
func (w *Worker) drainQueue() {
	for {
		task, ok := w.queue.TryPop()
		if !ok {
			return
		}
		w.runTask(task)
		w.queries++
		w.processed.Add(1)
		w.metrics.RecordTaskProcessed(w.id)
	}
}

// runTask invokes one task with panic isolation.
func (w *Worker) runTask(task Task) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("task panicked",
				F("worker", w.id),
				F("panic", r),
				F("stack", string(debug.Stack())))
			w.metrics.RecordCallbackPanic(w.id, r)
		}
	}()
	task()
}
