package core

import "sync"

// Recycler is a type-safe get/put pool used to reuse heap records and reduce
// allocation churn. It is functionally transparent: dropping every Put would
// change allocation rate, not behavior.
//
// Recycled instances are fully reset before they are pooled, so a Get never
// observes state from a previous life.
type Recycler[T any] struct {
	pool  sync.Pool
	reset func(*T)
}

// NewRecycler creates a Recycler. reset is applied to every instance on Put;
// it may be nil when T's zero value requires no scrubbing.
func NewRecycler[T any](reset func(*T)) *Recycler[T] {
	r := &Recycler[T]{reset: reset}
	r.pool.New = func() any {
		return new(T)
	}
	return r
}

// Get returns a reset instance, allocating one if the pool is empty.
func (r *Recycler[T]) Get() *T {
	return r.pool.Get().(*T)
}

// Put resets the instance and returns it to the pool.
// Nil pointers are ignored.
func (r *Recycler[T]) Put(v *T) {
	if v == nil {
		return
	}
	if r.reset != nil {
		r.reset(v)
	}
	r.pool.Put(v)
}
