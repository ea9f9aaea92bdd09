// Package queue provides the unbounded blocking priority queue used as an
// actor mailbox. Higher priorities are taken first; equal priorities keep
// insertion order.
package queue

import (
	"container/heap"
	"context"
	"errors"
	"sync"
	"time"
)

// ErrPollTimeout is returned when nothing arrives within the poll window
var ErrPollTimeout = errors.New("queue poll timed out")

// Queue is a mailbox with a single consumer and any number of producers
type Queue[T any] struct {
	mu     sync.Mutex
	items  items[T]
	seq    uint64
	notify chan struct{}
}

// New creates an empty queue
func New[T any]() *Queue[T] {
	return &Queue[T]{notify: make(chan struct{}, 1)}
}

// Push adds an item. It never blocks.
func (q *Queue[T]) Push(v T, priority int) {
	q.mu.Lock()
	q.seq++
	heap.Push(&q.items, item[T]{value: v, priority: priority, seq: q.seq})
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Len returns the number of pending items
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Poll waits up to timeout for an item
func (q *Queue[T]) Poll(ctx context.Context, timeout time.Duration) (T, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if v, ok := q.TryPop(); ok {
			return v, nil
		}
		select {
		case <-q.notify:
		case <-timer.C:
			var zero T
			return zero, ErrPollTimeout
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Take waits for an item until the context is done
func (q *Queue[T]) Take(ctx context.Context) (T, error) {
	for {
		if v, ok := q.TryPop(); ok {
			return v, nil
		}
		select {
		case <-q.notify:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// TryPop removes the head item if there is one
func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	return heap.Pop(&q.items).(item[T]).value, true
}

type item[T any] struct {
	value    T
	priority int
	seq      uint64
}

type items[T any] []item[T]

func (h items[T]) Len() int { return len(h) }

func (h items[T]) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h items[T]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *items[T]) Push(x any) { *h = append(*h, x.(item[T])) }

func (h *items[T]) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}
