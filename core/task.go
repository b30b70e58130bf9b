package core

// Task is the unit of work (Closure).
//
// Tasks take no arguments: any state a task needs is captured by the closure.
// Every task assigned to one worker executes on that worker's dedicated
// goroutine, strictly serialized with all other tasks and timers assigned to
// the same worker. State owned by a single worker therefore needs no locking
// inside its callbacks.
type Task func()
