package publish

import (
	"context"
	"time"

	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/deck"
)

// DeployMerger is the persistence the status writer needs.
type DeployMerger interface {
	MergeDeploy(ctx context.Context, id string, slot deck.DeploySlot, data deck.DeployData) error
}

// StatusWriter marks a deck's deploy slot as scheduled.
type StatusWriter struct {
	repo DeployMerger
	now  func() time.Time
}

func NewStatusWriter(repo DeployMerger) *StatusWriter {
	return &StatusWriter{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// MarkScheduled performs exactly one merge write. The slot is chosen by
// publish alone: api when publish is set, github otherwise, so a request
// with both flags only touches deploy.api.
func (w *StatusWriter) MarkScheduled(ctx context.Context, deckID, ownerID string, publish, github bool) error {
	if deckID == "" {
		return nil
	}
	data := deck.DeployData{
		Status:    deck.DeployStatusScheduled,
		UpdatedAt: w.now(),
	}
	slot := deck.SlotGitHub
	if publish {
		slot = deck.SlotAPI
	}
	return w.repo.MergeDeploy(ctx, deckID, slot, data)
}
