package core

// =============================================================================
// Timer records and the per-worker timer set
// =============================================================================

// timerState is the invocation state of a timer callback.
//
// The worker loop and the callback run on the same goroutine, so the state is
// never touched concurrently. timerFailed is how a panic from one firing is
// carried across to the next tick without rethrowing: fireTimer leaves the
// timer in timerFailed instead of timerIdle, and the next tick resolves it
// (reschedule for repeating timers, discard for one-shots) without invoking
// the callback again.
type timerState uint8

const (
	timerIdle    timerState = iota
	timerRunning            // callback currently executing
	timerFailed             // previous invocation panicked
)

// Timer is one scheduled callback. A Timer belongs to exactly one worker's
// active set or pending-add staging list, or to neither once removed.
// Instances come from a Recycler and are fully reset before reuse.
type Timer struct {
	id          int64 // globally unique across the pool, monotonically increasing
	callback    Task
	initial     int64 // creation timestamp (ms)
	period      int64 // requested delay or interval (ms), >= 0
	repeatCount int64 // 0 = one-shot; >= 1 repeating, incremented per firing
	trigger     int64 // absolute timestamp (ms) of the next due firing
	state       timerState
}

// ID returns the timer's pool-wide unique id.
func (t *Timer) ID() int64 {
	return t.id
}

// advance reschedules a repeating timer after a firing (or after a firing
// that panicked). The next trigger is anchored to the creation time, not to
// the current time: the k-th firing is due at initial + period*k, independent
// of scheduling jitter from prior firings. Under sustained overload triggers
// drift arbitrarily behind the clock; this is an accepted accuracy
// limitation of the anchored formula.
func (t *Timer) advance() {
	t.repeatCount++
	t.trigger = t.initial + t.period*t.repeatCount
}

// NewTimerRecycler returns the Recycler used for Timer records.
// Put scrubs every field so a recycled Timer never leaks its previous
// callback or schedule.
func NewTimerRecycler() *Recycler[Timer] {
	return NewRecycler[Timer](func(t *Timer) {
		*t = Timer{}
	})
}

// =============================================================================
// Staging (any goroutine) and tick protocol (worker goroutine only)
// =============================================================================

// ScheduleTimer stages a new timer for this worker.
//
// The timer record is taken from the recycler, anchored at the current clock
// reading and appended to the pending-add list under its lock; the worker
// merges it into the active set on its next tick. repeating selects interval
// semantics (repeatCount starts at 1 so the anchored reschedule formula is
// exercised from the first firing onward).
//
// Safe to call from any goroutine.
func (w *Worker) ScheduleTimer(id int64, callback Task, periodMs int64, repeating bool) {
	t := w.recycler.Get()
	now := w.clock.NowMillis()
	t.id = id
	t.callback = callback
	t.initial = now
	t.period = periodMs
	if repeating {
		t.repeatCount = 1
	}
	t.trigger = now + periodMs

	w.addMu.Lock()
	w.pendingAdd = append(w.pendingAdd, t)
	w.addMu.Unlock()
}

// CancelTimer stages a timer id for removal. Idempotent; unknown or
// already-fired ids are a silent no-op. Safe to call from any goroutine.
func (w *Worker) CancelTimer(id int64) {
	w.removeMu.Lock()
	w.pendingRemove = append(w.pendingRemove, id)
	w.removeMu.Unlock()
}

// tickTimers runs one timer tick: merge staged additions, apply staged
// removals, then evaluate the active set. Only the worker goroutine calls
// this.
func (w *Worker) tickTimers(now int64) {
	w.mergePendingTimers()
	w.applyPendingRemovals()

	kept := w.timers[:0]
	for _, t := range w.timers {
		switch {
		case t.state == timerFailed:
			if t.repeatCount == 0 {
				// One-shot already had its single (failed) attempt.
				w.discardTimer(t)
				continue
			}
			// Reschedule as if the failed firing had happened, without
			// re-invoking: a failing repeating timer must neither
			// double-fire nor stall.
			t.state = timerIdle
			t.advance()

		case t.trigger <= now:
			w.fireTimer(t)
			if t.state == timerIdle {
				// Returned normally.
				if t.repeatCount == 0 {
					w.discardTimer(t)
					continue
				}
				t.advance()
			}
			// timerFailed is resolved on the next tick.
		}
		kept = append(kept, t)
	}
	// Release references to discarded timers hiding in the tail.
	for i := len(kept); i < len(w.timers); i++ {
		w.timers[i] = nil
	}
	w.timers = kept
}

// mergePendingTimers moves all staged additions into the active set.
func (w *Worker) mergePendingTimers() {
	w.addMu.Lock()
	staged := w.pendingAdd
	w.pendingAdd = nil
	w.addMu.Unlock()

	if len(staged) > 0 {
		w.timers = append(w.timers, staged...)
	}
}

// applyPendingRemovals removes the first active timer matching each staged id
// and returns the record to the recycler.
func (w *Worker) applyPendingRemovals() {
	w.removeMu.Lock()
	staged := w.pendingRemove
	w.pendingRemove = nil
	w.removeMu.Unlock()

	for _, id := range staged {
		for i, t := range w.timers {
			if t.id == id {
				w.timers = append(w.timers[:i], w.timers[i+1:]...)
				w.discardTimer(t)
				break
			}
		}
	}
}

// fireTimer invokes the timer callback with panic isolation. On a normal
// return the timer is back in timerIdle; on a panic it is left in
// timerFailed and the panic is reported, never rethrown.
func (w *Worker) fireTimer(t *Timer) {
	t.state = timerRunning
	defer func() {
		if r := recover(); r != nil {
			t.state = timerFailed
			w.logger.Error("timer callback panicked",
				F("worker", w.id),
				F("timer", t.id),
				F("panic", r))
			w.metrics.RecordCallbackPanic(w.id, r)
			return
		}
		t.state = timerIdle
	}()
	t.callback()
}

func (w *Worker) discardTimer(t *Timer) {
	w.recycler.Put(t)
}

// activeTimerCount is test support; the active set is owned by the worker
// goroutine, so callers must know the loop is not running.
func (w *Worker) activeTimerCount() int {
	return len(w.timers)
}
