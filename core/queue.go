package core

// TaskQueue is the bounded FIFO queue owned by one worker.
//
// It is a thin wrapper over a buffered channel: any goroutine may produce,
// only the owning worker consumes. Admission is non-blocking; once the queue
// holds capacity entries, further pushes fail and the caller decides what to
// do with the rejected task (the scheduler drops it and reports
// ErrBackpressure).
type TaskQueue struct {
	tasks chan Task
}

// NewTaskQueue creates a queue holding at most capacity tasks.
// Capacity must be positive; the scheduler validates this before construction.
func NewTaskQueue(capacity int) *TaskQueue {
	return &TaskQueue{
		tasks: make(chan Task, capacity),
	}
}

// TryPush appends a task if the queue is below capacity.
// Returns false when the queue is full; the task is not queued.
func (q *TaskQueue) TryPush(t Task) bool {
	select {
	case q.tasks <- t:
		return true
	default:
		return false
	}
}

// TryPop removes the oldest task without blocking.
// Returns false when the queue is empty.
func (q *TaskQueue) TryPop() (Task, bool) {
	select {
	case t := <-q.tasks:
		return t, true
	default:
		return nil, false
	}
}

// Len returns the number of queued tasks.
func (q *TaskQueue) Len() int {
	return len(q.tasks)
}

// Cap returns the admission limit.
func (q *TaskQueue) Cap() int {
	return cap(q.tasks)
}

// Clear discards all queued tasks and releases their references. Used when a
// worker is stopped or replaced and its queued work will never be delivered.
func (q *TaskQueue) Clear() {
	for {
		select {
		case <-q.tasks:
		default:
			return
		}
	}
}
