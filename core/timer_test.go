package core

import (
	"sync/atomic"
	"testing"
)

// manualClock lets tests drive the timer tick deterministically.
type manualClock struct {
	now atomic.Int64
}

func (c *manualClock) NowMillis() int64 {
	return c.now.Load()
}

func (c *manualClock) advance(ms int64) {
	c.now.Add(ms)
}

// newTickTestWorker builds a worker whose loop is never started, so tests
// own the worker-goroutine role and may call tickTimers directly.
func newTickTestWorker(clock Clock) *Worker {
	return NewWorker(0, WorkerOptions{
		Logger: NewNoOpLogger(),
		Clock:  clock,
	})
}

// TestTimerTick_OneShotFiresOnceAndIsRemoved tests one-shot semantics
// Main test items:
// 1. The timer does not fire before its trigger
// 2. It fires exactly once at/after the trigger
// 3. It is absent from the active set afterward
func TestTimerTick_OneShotFiresOnceAndIsRemoved(t *testing.T) {
	clock := &manualClock{}
	w := newTickTestWorker(clock)

	var fired int
	w.ScheduleTimer(1, func() { fired++ }, 50, false)

	w.tickTimers(clock.NowMillis())
	if fired != 0 {
		t.Fatalf("timer fired %d times before trigger", fired)
	}
	if w.activeTimerCount() != 1 {
		t.Fatalf("expected 1 active timer after merge, got %d", w.activeTimerCount())
	}

	clock.advance(50)
	w.tickTimers(clock.NowMillis())
	if fired != 1 {
		t.Fatalf("expected 1 firing at trigger, got %d", fired)
	}
	if w.activeTimerCount() != 0 {
		t.Errorf("expected one-shot removed after firing, got %d active", w.activeTimerCount())
	}

	clock.advance(500)
	w.tickTimers(clock.NowMillis())
	if fired != 1 {
		t.Errorf("one-shot fired again: %d total", fired)
	}
}

// TestTimerTick_AnchoredReschedule tests the repeating drift law
// Main test items:
// 1. The k-th firing trigger is initial + period*k
// 2. Rescheduling is anchored to creation time, not to the firing time
func TestTimerTick_AnchoredReschedule(t *testing.T) {
	clock := &manualClock{}
	w := newTickTestWorker(clock)

	var fired int
	w.ScheduleTimer(1, func() { fired++ }, 100, true)
	w.tickTimers(clock.NowMillis())

	tm := w.timers[0]
	if tm.trigger != 100 {
		t.Fatalf("expected first trigger 100, got %d", tm.trigger)
	}

	// Fire late, at 250: the second firing stays anchored at 200, not 350.
	clock.advance(250)
	w.tickTimers(clock.NowMillis())
	if fired != 1 {
		t.Fatalf("expected 1 firing, got %d", fired)
	}
	if tm.trigger != 200 {
		t.Fatalf("expected anchored trigger 200 after late firing, got %d", tm.trigger)
	}

	// 200 is already past, so the next tick fires immediately.
	w.tickTimers(clock.NowMillis())
	if fired != 2 {
		t.Fatalf("expected overdue second firing, got %d", fired)
	}
	if tm.trigger != 300 {
		t.Errorf("expected trigger 300 after second firing, got %d", tm.trigger)
	}
	if tm.repeatCount != 3 {
		t.Errorf("expected repeatCount 3, got %d", tm.repeatCount)
	}
}

// TestTimerTick_RepeatingPanicKeepsSchedule tests panic isolation for
// interval timers
// Main test items:
// 1. A panicking firing leaves the timer registered
// 2. The next tick reschedules without re-invoking (no double-fire)
// 3. Subsequent firings happen on the anchored schedule
func TestTimerTick_RepeatingPanicKeepsSchedule(t *testing.T) {
	clock := &manualClock{}
	w := newTickTestWorker(clock)

	var attempts int
	w.ScheduleTimer(1, func() {
		attempts++
		panic("timer boom")
	}, 100, true)

	clock.advance(100)
	w.tickTimers(clock.NowMillis())
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
	if w.timers[0].state != timerFailed {
		t.Fatalf("expected timerFailed state after panic, got %d", w.timers[0].state)
	}

	// Resolution tick: reschedule as if fired, without invoking.
	clock.advance(10)
	w.tickTimers(clock.NowMillis())
	if attempts != 1 {
		t.Fatalf("resolution tick re-invoked the callback: %d attempts", attempts)
	}
	if got := w.timers[0].trigger; got != 200 {
		t.Fatalf("expected rescheduled trigger 200, got %d", got)
	}

	clock.advance(90) // now = 200
	w.tickTimers(clock.NowMillis())
	if attempts != 2 {
		t.Errorf("expected second attempt at 200, got %d", attempts)
	}
}

// TestTimerTick_OneShotPanicDiscarded tests that a one-shot whose single
// attempt panics is discarded on the following tick without retrying
func TestTimerTick_OneShotPanicDiscarded(t *testing.T) {
	clock := &manualClock{}
	w := newTickTestWorker(clock)

	var attempts int
	w.ScheduleTimer(1, func() {
		attempts++
		panic("one-shot boom")
	}, 20, false)

	clock.advance(20)
	w.tickTimers(clock.NowMillis())
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
	if w.activeTimerCount() != 1 {
		t.Fatalf("expected failed one-shot kept until next tick, got %d", w.activeTimerCount())
	}

	clock.advance(10)
	w.tickTimers(clock.NowMillis())
	if attempts != 1 {
		t.Errorf("one-shot retried after panic: %d attempts", attempts)
	}
	if w.activeTimerCount() != 0 {
		t.Errorf("expected failed one-shot discarded, got %d active", w.activeTimerCount())
	}
}

// TestTimerTick_CancelBeforeFire tests staged removal
// Main test items:
// 1. A cancelled timer never fires
// 2. Cancelling unknown ids and double-cancelling are silent no-ops
// 3. An unrelated timer on the same worker is unaffected
func TestTimerTick_CancelBeforeFire(t *testing.T) {
	clock := &manualClock{}
	w := newTickTestWorker(clock)

	var firedA, firedB int
	w.ScheduleTimer(1, func() { firedA++ }, 50, false)
	w.ScheduleTimer(2, func() { firedB++ }, 50, false)

	w.CancelTimer(2)
	w.CancelTimer(2)   // double cancel
	w.CancelTimer(999) // unknown id

	clock.advance(60)
	w.tickTimers(clock.NowMillis())

	if firedA != 1 {
		t.Errorf("expected unrelated timer to fire once, got %d", firedA)
	}
	if firedB != 0 {
		t.Errorf("cancelled timer fired %d times", firedB)
	}
	if w.activeTimerCount() != 0 {
		t.Errorf("expected empty active set, got %d", w.activeTimerCount())
	}
}

// TestTimerTick_IntervalStartsAtRepeatOne tests SetInterval staging
func TestTimerTick_IntervalStartsAtRepeatOne(t *testing.T) {
	clock := &manualClock{}
	clock.advance(500)
	w := newTickTestWorker(clock)

	w.ScheduleTimer(1, func() {}, 100, true)
	w.tickTimers(clock.NowMillis())

	tm := w.timers[0]
	if tm.repeatCount != 1 {
		t.Errorf("expected repeatCount 1 at creation, got %d", tm.repeatCount)
	}
	if tm.initial != 500 {
		t.Errorf("expected initial anchored at creation time 500, got %d", tm.initial)
	}
	if tm.trigger != 600 {
		t.Errorf("expected trigger 600, got %d", tm.trigger)
	}
}

// TestTimerRecycler_ResetsRecords tests that Put scrubs every field, so a
// recycled Timer never leaks its previous callback or schedule
func TestTimerRecycler_ResetsRecords(t *testing.T) {
	r := NewTimerRecycler()

	tm := r.Get()
	tm.id = 42
	tm.callback = func() {}
	tm.initial = 1
	tm.period = 2
	tm.repeatCount = 3
	tm.trigger = 4
	tm.state = timerFailed

	r.Put(tm)

	if tm.id != 0 || tm.callback != nil || tm.initial != 0 ||
		tm.period != 0 || tm.repeatCount != 0 || tm.trigger != 0 ||
		tm.state != timerIdle {
		t.Errorf("expected fully reset timer after Put, got %+v", tm)
	}
}
