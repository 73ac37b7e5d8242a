package repository

import (
	"context"
	"errors"

	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/deck"
)

var (
	ErrNotFound = errors.New("deck not found")
)

// Repository persists decks. MergeDeploy and MergeMeta are merge writes: they
// touch only the named fields and leave the rest of the document as it is.
type Repository interface {
	Create(ctx context.Context, d *deck.Deck) (string, error)
	Get(ctx context.Context, id string) (*deck.Deck, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*deck.Deck, error)
	UpdateName(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error

	// MergeDeploy writes deploy.<slot>, creating the document when absent.
	MergeDeploy(ctx context.Context, id string, slot deck.DeploySlot, data deck.DeployData) error
	// MergeMeta replaces the meta sub-record of an existing deck.
	MergeMeta(ctx context.Context, id string, meta deck.DeckMeta) error
}

var (
	_ Repository = (*MemoryRepo)(nil)
	_ Repository = (*MongoRepo)(nil)
)
