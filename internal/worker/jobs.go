package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/deck"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/deck/repository"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/github"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/queue"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/pkg/logger"
	"github.com/gosimple/slug"
)

// load fetches the deck and checks that the job token belongs to its owner.
func (w *Worker) load(ctx context.Context, t queue.Task) (*deck.Deck, error) {
	d, err := w.store.Get(ctx, t.DeckID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, permanent(err)
	}
	if err != nil {
		return nil, err
	}
	if w.auth != nil {
		sub, err := w.auth.Authenticate(ctx, t.Token)
		if err != nil {
			return nil, permanent(fmt.Errorf("job token: %w", err))
		}
		if sub != d.Data.OwnerID {
			return nil, permanent(ErrForbidden)
		}
	}
	return d, nil
}

func (w *Worker) publishDeck(ctx context.Context, t queue.Task) error {
	if w.site == nil {
		return permanent(ErrNoUploader)
	}
	d, err := w.load(ctx, t)
	if err != nil {
		return err
	}

	now := w.now()
	meta := deck.DeckMeta{Title: d.Data.Name, Feed: true}
	if d.Data.Meta != nil {
		meta = *d.Data.Meta
	}
	if meta.Title == "" {
		meta.Title = d.Data.Name
	}
	if meta.Pathname == "" {
		meta.Pathname = slug.Make(d.Data.Name)
	}
	if meta.Pathname == "" {
		meta.Pathname = d.ID
	}
	if !meta.Published || meta.PublishedAt.IsZero() {
		meta.PublishedAt = now
	}
	meta.Published = true
	meta.UpdatedAt = now

	page, err := Render(d, meta)
	if err != nil {
		return permanent(err)
	}
	key := fmt.Sprintf("decks/%s/%s/index.html", d.Data.OwnerID, meta.Pathname)
	url, err := w.site.Put(ctx, key, page, "text/html; charset=utf-8")
	if err != nil {
		return err
	}
	if err := w.store.MergeMeta(ctx, d.ID, meta); err != nil {
		return err
	}
	logger.Infof("worker: deck %s published at %s", d.ID, url)
	return nil
}

func (w *Worker) pushGitHub(ctx context.Context, t queue.Task) error {
	if w.github == nil {
		return permanent(ErrNoDispatcher)
	}
	d, err := w.load(ctx, t)
	if err != nil {
		return err
	}
	err = w.github.Dispatch(ctx, github.Payload{DeckID: d.ID, OwnerID: d.Data.OwnerID})
	if errors.Is(err, github.ErrNotConfigured) {
		return permanent(err)
	}
	return err
}
