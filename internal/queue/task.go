package queue

import (
	"context"
	"errors"
	"time"
)

// TaskType names the out-of-process job a task asks for.
type TaskType string

const (
	TypePublishDeck TaskType = "publish-deck"
	TypePushGitHub  TaskType = "push-github"
)

// ErrEmpty is returned by Dequeue when no task arrived before the timeout.
var ErrEmpty = errors.New("queue empty")

// Task is the payload carried through the queue. DeckID, Token and Type are the
// job itself; the remaining fields are envelope data set by the queue.
type Task struct {
	ID         string    `json:"id"`
	DeckID     string    `json:"deckId"`
	Token      string    `json:"token"`
	Type       TaskType  `json:"type"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
	Attempts   int       `json:"attempts"`
}

// Queue is an at-least-once FIFO of tasks.
type Queue interface {
	Enqueue(ctx context.Context, t Task) error
	// Dequeue blocks up to timeout and returns ErrEmpty when nothing arrived.
	Dequeue(ctx context.Context, timeout time.Duration) (Task, error)
}
