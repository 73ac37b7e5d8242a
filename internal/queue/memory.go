package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryQueue is a process-local Queue for tests and single-process runs.
type MemoryQueue struct {
	mu     sync.Mutex
	tasks  []Task
	notify chan struct{}
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{notify: make(chan struct{}, 1)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, t Task) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.EnqueuedAt.IsZero() {
		t.EnqueuedAt = time.Now().UTC()
	}
	q.mu.Lock()
	q.tasks = append(q.tasks, t)
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

func (q *MemoryQueue) Dequeue(ctx context.Context, timeout time.Duration) (Task, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		if t, ok := q.pop(); ok {
			return t, nil
		}
		select {
		case <-q.notify:
		case <-timer.C:
			return Task{}, ErrEmpty
		case <-ctx.Done():
			return Task{}, ctx.Err()
		}
	}
}

func (q *MemoryQueue) pop() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return Task{}, false
	}
	t := q.tasks[0]
	q.tasks = q.tasks[1:]
	if len(q.tasks) > 0 {
		select {
		case q.notify <- struct{}{}:
		default:
		}
	}
	return t, true
}

// Pending returns a snapshot of the queued tasks in FIFO order.
func (q *MemoryQueue) Pending() []Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Task(nil), q.tasks...)
}
