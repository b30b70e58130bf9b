package loom

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/loomkit/loom/core"
)

// Sentinel return values for calls that fail without raising an error.
const (
	// TimerNone is returned by SetTimeout/SetInterval on invalid input.
	TimerNone int64 = -1

	// IdentityNone is returned by Identity on a non-worker goroutine.
	IdentityNone int = -1
)

// Config holds pool configuration. Workers, StepMs and QueueCapacity must be
// positive; everything else is optional and defaults to the core
// implementations.
type Config struct {
	// Workers is the fixed pool size. Worker ids are 0..Workers-1.
	Workers int

	// StepMs is the per-tick sleep in milliseconds. It bounds timer firing
	// accuracy and metric granularity.
	StepMs int

	// QueueCapacity is the per-worker hard admission limit.
	QueueCapacity int

	// Logger receives diagnostics, callback failures and lifecycle notices.
	Logger core.Logger

	// Metrics receives per-worker gauges and counters.
	Metrics core.Metrics

	// Clock supplies monotonic milliseconds.
	Clock core.Clock
}

// DefaultConfig returns a small general-purpose pool configuration.
func DefaultConfig() Config {
	return Config{
		Workers:       4,
		StepMs:        10,
		QueueCapacity: 1024,
	}
}

func (c Config) validate() error {
	if c.Workers <= 0 || c.StepMs <= 0 || c.QueueCapacity <= 0 {
		return fmt.Errorf("%w: workers=%d stepMs=%d queueCapacity=%d",
			core.ErrInvalidConfiguration, c.Workers, c.StepMs, c.QueueCapacity)
	}
	return nil
}

// Scheduler owns a fixed pool of workers, each bound to one dedicated
// goroutine, and is the only admission/control surface callers use.
//
// Scheduling calls never raise callback or scheduling failures back to the
// caller: they return sentinel errors or sentinel values and report the
// condition to the Logger. A single bad call or failing callback never
// brings down a worker or the pool.
type Scheduler struct {
	// mu serializes pool (re-)initialization against admission and control
	// calls; admission takes the read side.
	mu      sync.RWMutex
	workers []*core.Worker
	cancel  context.CancelFunc
	wg      *sync.WaitGroup
	running bool

	logger   core.Logger
	metrics  core.Metrics
	clock    core.Clock
	recycler *core.Recycler[core.Timer]

	// nextTimerID is pool-wide and survives reconfiguration, so timer ids
	// are unique and monotonically increasing across all workers for the
	// scheduler's lifetime.
	nextTimerID atomic.Int64

	idMu       sync.RWMutex
	identities map[uint64]int
}

// New validates cfg, allocates the worker pool and starts one goroutine per
// worker. Fails with ErrInvalidConfiguration when any of Workers, StepMs or
// QueueCapacity is not positive.
func New(cfg Config) (*Scheduler, error) {
	s := &Scheduler{
		logger:     core.NewDefaultLogger(),
		metrics:    &core.NilMetrics{},
		clock:      core.NewMonotonicClock(),
		recycler:   core.NewTimerRecycler(),
		identities: make(map[uint64]int),
	}
	if err := s.Reconfigure(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// Reconfigure replaces the worker pool with one built from cfg.
//
// Concurrent calls serialize on the scheduler lock. An existing pool is
// interrupted best-effort and not waited for: a task running at this moment
// completes independently on its old goroutine, and queued work on old
// workers is discarded. Timer ids keep increasing across generations.
func (s *Scheduler) Reconfigure(cfg Config) error {
	// Collaborators are swapped below, so even the rejection log must not
	// read s.logger outside the lock.
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := cfg.validate(); err != nil {
		s.logger.Error("pool configuration rejected", core.F("error", err))
		return err
	}

	if s.cancel != nil {
		// Best-effort interrupt; the old loops exit at their next sleep.
		// Queued work on the old generation is never delivered, so release it.
		s.cancel()
		for _, w := range s.workers {
			w.DiscardQueued()
		}
	}

	if cfg.Logger != nil {
		s.logger = cfg.Logger
	}
	if cfg.Metrics != nil {
		s.metrics = cfg.Metrics
	}
	if cfg.Clock != nil {
		s.clock = cfg.Clock
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	wg := &sync.WaitGroup{}
	s.wg = wg

	opts := core.WorkerOptions{
		Step:          time.Duration(cfg.StepMs) * time.Millisecond,
		QueueCapacity: cfg.QueueCapacity,
		Logger:        s.logger,
		Metrics:       s.metrics,
		Clock:         s.clock,
		Timers:        s.recycler,
	}
	workers := make([]*core.Worker, cfg.Workers)
	for i := range workers {
		workers[i] = core.NewWorker(i, opts)
	}
	s.workers = workers
	s.running = true

	for _, w := range workers {
		wg.Add(1)
		go func(w *core.Worker) {
			defer wg.Done()
			gid := currentGoroutineID()
			s.bindIdentity(gid, w.ID())
			defer s.unbindIdentity(gid)
			w.Run(ctx)
		}(w)
	}

	s.logger.Info("scheduler pool sized",
		core.F("workers", cfg.Workers),
		core.F("stepMs", cfg.StepMs),
		core.F("queueCapacity", cfg.QueueCapacity))
	return nil
}

// Stop interrupts every worker and waits for the loops to exit. Remaining
// queued work is not drained; it is discarded once the loops have stopped.
// The scheduler can be restarted later with Reconfigure.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	wg := s.wg
	workers := s.workers
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if wg != nil {
		wg.Wait()
	}
	for _, w := range workers {
		w.DiscardQueued()
	}
}

// Submit appends callback to worker 0's queue.
func (s *Scheduler) Submit(callback core.Task) error {
	return s.SubmitTo(0, callback)
}

// SubmitTo appends callback to the given worker's queue.
//
// Returns ErrInvalidArgument for a nil callback, ErrOutOfRange for a bad
// worker id, and ErrBackpressure when the queue is at capacity (the callback
// is dropped and the drop reported; producers are never blocked). Callbacks
// submitted to the same worker execute in FIFO order; ordering across
// workers is independent.
func (s *Scheduler) SubmitTo(workerID int, callback core.Task) error {
	if callback == nil {
		s.currentLogger().Error("submit rejected: nil callback", core.F("worker", workerID))
		return core.ErrInvalidArgument
	}
	w, err := s.worker(workerID)
	if err != nil {
		return err
	}
	return w.Submit(callback)
}

// Pause suspends one worker. Queued tasks stay queued and timers stay
// registered; nothing executes until Resume. Idempotent.
func (s *Scheduler) Pause(workerID int) error {
	w, err := s.worker(workerID)
	if err != nil {
		return err
	}
	w.Pause()
	return nil
}

// PauseAll suspends every worker.
func (s *Scheduler) PauseAll() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.workers {
		w.Pause()
	}
}

// Resume restarts one worker. Idempotent.
func (s *Scheduler) Resume(workerID int) error {
	w, err := s.worker(workerID)
	if err != nil {
		return err
	}
	w.Resume()
	return nil
}

// ResumeAll restarts every worker.
func (s *Scheduler) ResumeAll() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.workers {
		w.Resume()
	}
}

// Identity returns the logical worker id bound to the calling goroutine, or
// IdentityNone when called from a goroutine that is not a worker loop.
func (s *Scheduler) Identity() int {
	gid := currentGoroutineID()
	s.idMu.RLock()
	defer s.idMu.RUnlock()
	if id, ok := s.identities[gid]; ok {
		return id
	}
	return IdentityNone
}

// Rate returns the last-published rates for a worker: fps is loop iterations
// per second, qps is tasks per second. Out-of-range ids return (0, 0) rather
// than failing, so callers can poll liberally without guarding.
func (s *Scheduler) Rate(workerID int) (fps, qps int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if workerID < 0 || workerID >= len(s.workers) {
		return 0, 0
	}
	return s.workers[workerID].Rates()
}

// SetTimeout schedules callback to fire once on the given worker no earlier
// than delayMs milliseconds from now (accuracy bounded by the step). Returns
// the new timer id, or TimerNone for a nil callback, negative delay or bad
// worker id.
func (s *Scheduler) SetTimeout(callback core.Task, delayMs int64, workerID int) int64 {
	return s.scheduleTimer(callback, delayMs, workerID, false)
}

// SetInterval schedules callback to fire on the given worker every
// intervalMs milliseconds, anchored to the creation time: the k-th firing is
// due at creation + intervalMs*k regardless of jitter from prior firings.
// Returns the new timer id, or TimerNone on invalid input.
func (s *Scheduler) SetInterval(callback core.Task, intervalMs int64, workerID int) int64 {
	return s.scheduleTimer(callback, intervalMs, workerID, true)
}

func (s *Scheduler) scheduleTimer(callback core.Task, periodMs int64, workerID int, repeating bool) int64 {
	if callback == nil {
		s.currentLogger().Error("timer rejected: nil callback", core.F("worker", workerID))
		return TimerNone
	}
	if periodMs < 0 {
		s.currentLogger().Error("timer rejected: negative period",
			core.F("worker", workerID),
			core.F("periodMs", periodMs))
		return TimerNone
	}
	w, err := s.worker(workerID)
	if err != nil {
		return TimerNone
	}
	id := s.nextTimerID.Add(1)
	w.ScheduleTimer(id, callback, periodMs, repeating)
	return id
}

// ClearTimeout stages a timer for removal on the given worker. Idempotent;
// clearing an unknown or already-fired id is a silent no-op.
func (s *Scheduler) ClearTimeout(id int64, workerID int) {
	w, err := s.worker(workerID)
	if err != nil {
		return
	}
	w.CancelTimer(id)
}

// ClearInterval is identical to ClearTimeout.
func (s *Scheduler) ClearInterval(id int64, workerID int) {
	s.ClearTimeout(id, workerID)
}

// WorkerCount returns the current pool size.
func (s *Scheduler) WorkerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.workers)
}

// Stats returns a pool-wide snapshot for periodic export.
func (s *Scheduler) Stats() core.PoolStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := core.PoolStats{
		Workers: len(s.workers),
		Running: s.running,
	}
	for _, w := range s.workers {
		stats.Queued += w.QueueLen()
		stats.Processed += w.Processed()
	}
	return stats
}

// currentLogger snapshots the logger under the read lock. Reconfigure may
// swap collaborators at any time, so no admission path reads s.logger
// without holding s.mu.
func (s *Scheduler) currentLogger() core.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logger
}

// worker resolves a worker id under the read lock, reporting out-of-range
// ids to the logger.
func (s *Scheduler) worker(workerID int) (*core.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if workerID < 0 || workerID >= len(s.workers) {
		s.logger.Error("worker id out of range",
			core.F("worker", workerID),
			core.F("workers", len(s.workers)))
		return nil, core.ErrOutOfRange
	}
	return s.workers[workerID], nil
}
