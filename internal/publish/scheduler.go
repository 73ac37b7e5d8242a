package publish

import (
	"context"

	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/queue"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/pkg/metrics"
)

// Gateway forwards jobs to the task queue.
type Gateway struct {
	queue queue.Queue
}

func NewGateway(q queue.Queue) *Gateway {
	return &Gateway{queue: q}
}

// Schedule submits one job. A queue error is returned as is.
func (g *Gateway) Schedule(ctx context.Context, deckID, token string, typ queue.TaskType) error {
	if err := g.queue.Enqueue(ctx, queue.Task{DeckID: deckID, Token: token, Type: typ}); err != nil {
		return err
	}
	metrics.TasksEnqueued.WithLabelValues(string(typ)).Inc()
	return nil
}
