package stream

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrQueueCompleted is returned by Push after Complete.
var ErrQueueCompleted = errors.New("queue completed")

// Queue is a bounded FIFO with a completion signal. It has a single writer,
// which also calls Complete, and a single reader.
type Queue[T any] struct {
	ch        chan T
	once      sync.Once
	completed atomic.Bool
}

// NewQueue creates a queue holding at most size items; size below 1 means 1.
func NewQueue[T any](size int) *Queue[T] {
	if size < 1 {
		size = 1
	}
	return &Queue[T]{ch: make(chan T, size)}
}

// Push appends item, blocking while the queue is full or until ctx is done.
func (q *Queue[T]) Push(ctx context.Context, item T) error {
	if q.completed.Load() {
		return ErrQueueCompleted
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case q.ch <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Complete marks the end of the stream. Items already queued stay available.
func (q *Queue[T]) Complete() {
	q.once.Do(func() {
		q.completed.Store(true)
		close(q.ch)
	})
}

// Pop returns the next item, blocking until one arrives. It reports false once
// the queue is complete and drained.
func (q *Queue[T]) Pop() (T, bool) {
	item, ok := <-q.ch
	return item, ok
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	return len(q.ch)
}
