package zeroconf

import (
	"context"
	"sync"
)

// resultQueue is an unbounded FIFO handing results from daemon callbacks to
// waiting consumers. Pushes never block: callbacks run while the operation
// lock is held, so they must not wait on a slow consumer.
type resultQueue[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	wake   chan struct{}
}

func newResultQueue[T any]() *resultQueue[T] {
	return &resultQueue[T]{wake: make(chan struct{}, 1)}
}

// push appends an item and reports whether the queue was still open.
func (q *resultQueue[T]) push(item T) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, item)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// pop waits for the next item. It returns ok=false once the queue is closed
// and drained, and the context error if ctx expires first.
func (q *resultQueue[T]) pop(ctx context.Context) (item T, ok bool, err error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item, q.items = q.items[0], q.items[1:]
			q.mu.Unlock()
			return item, true, nil
		}
		if q.closed {
			q.mu.Unlock()
			return item, false, nil
		}
		q.mu.Unlock()

		select {
		case <-q.wake:
		case <-ctx.Done():
			return item, false, ctx.Err()
		}
	}
}

// close marks the queue closed. Queued items remain poppable.
func (q *resultQueue[T]) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}
