package queue

import (
	"sync"
)

// Queue is a generic thread-safe FIFO. Producers may push from any
// goroutine; the owner drains it from one.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
}

// New creates a new empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		items: make([]T, 0),
	}
}

// Push appends items to the queue.
func (q *Queue[T]) Push(items ...T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, items...)
}

// TryPush appends item unless the queue already holds limit items.
// A limit <= 0 means unbounded.
func (q *Queue[T]) TryPush(limit int, item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if limit > 0 && len(q.items) >= limit {
		return false
	}
	q.items = append(q.items, item)
	return true
}

// Empty returns true if the queue has no items.
func (q *Queue[T]) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) == 0
}

// Len returns the number of items in the queue.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// GetAndEmpty returns all items and clears the queue.
func (q *Queue[T]) GetAndEmpty() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	result := q.items
	q.items = make([]T, 0, cap(q.items))
	return result
}

// Drain takes everything queued so far and hands it to fn in order,
// outside the lock. Items pushed by fn wait for the next drain.
func (q *Queue[T]) Drain(fn func(T)) int {
	items := q.GetAndEmpty()
	for _, item := range items {
		fn(item)
	}
	return len(items)
}
