package queue

import (
	"context"
	"sync"
)

// MemoryQueue is an in-process Enqueuer for tests. Enqueued ids can be
// drained through Tasks.
type MemoryQueue struct {
	mu    sync.Mutex
	tasks chan string

	// FailWith, when set, is returned by Enqueue to simulate a broker
	// outage.
	FailWith error
}

// NewMemoryQueue creates a MemoryQueue buffering up to size tasks.
func NewMemoryQueue(size int) *MemoryQueue {
	return &MemoryQueue{
		tasks: make(chan string, size),
	}
}

func (q *MemoryQueue) Enqueue(_ context.Context, jobID string) error {
	q.mu.Lock()
	failWith := q.FailWith
	q.mu.Unlock()

	if failWith != nil {
		return failWith
	}

	q.tasks <- jobID
	return nil
}

// SetFailure makes subsequent Enqueue calls return err.
func (q *MemoryQueue) SetFailure(err error) {
	q.mu.Lock()
	q.FailWith = err
	q.mu.Unlock()
}

// Tasks exposes the enqueued job ids in FIFO order.
func (q *MemoryQueue) Tasks() <-chan string {
	return q.tasks
}

// Len reports the number of undelivered tasks.
func (q *MemoryQueue) Len() int {
	return len(q.tasks)
}

var _ Enqueuer = (*MemoryQueue)(nil)
