// Package pipeline schedules batches across models on a pool of
// workers.  Each worker independently polls a shared input queue,
// runs the EM solvers for every enabled model, and forwards the
// resulting increments to a downstream queue consumed by an external
// merger, honoring a size bound by polling rather than blocking.
package pipeline

import "sync"

// Queue is an unbounded FIFO with non-blocking operations.  Capacity
// limits are enforced by the workers, which inspect Len and wait with
// bounded-delay polling; the scope-guaranteed increment push must never
// itself block or fail.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
}

func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{}
}

func (q *Queue[T]) Push(v T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, v)
}

// TryPop removes and returns the oldest element, or reports false
// without waiting.
func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	v := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	return v, true
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
