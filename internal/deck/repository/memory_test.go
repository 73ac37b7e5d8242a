package repository

import (
	"context"
	"testing"
	"time"

	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/deck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

func TestMemoryRepoCRUD(t *testing.T) {
	r := NewMemoryRepo()
	d := &deck.Deck{Data: deck.DeckData{Name: "Intro", OwnerID: "u1", Slides: []string{"s1", "s2"}}}
	id, err := r.Create(ctx, d)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := r.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Intro", got.Data.Name)
	assert.Equal(t, []string{"s1", "s2"}, got.Data.Slides)
	assert.False(t, got.Data.CreatedAt.IsZero())

	list, err := r.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	list, err = r.ListByOwner(ctx, "someone-else")
	require.NoError(t, err)
	require.Empty(t, list)

	require.NoError(t, r.UpdateName(ctx, id, "Renamed"))
	got, err = r.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Data.Name)
	assert.Equal(t, "u1", got.Data.OwnerID)

	require.NoError(t, r.Delete(ctx, id))
	_, err = r.Get(ctx, id)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, r.Delete(ctx, id), ErrNotFound)
	require.ErrorIs(t, r.UpdateName(ctx, id, "x"), ErrNotFound)
}

func TestMemoryRepo_GetReturnsCopy(t *testing.T) {
	r := NewMemoryRepo()
	id, err := r.Create(ctx, &deck.Deck{Data: deck.DeckData{Name: "a", OwnerID: "u1", Slides: []string{"s1"}}})
	require.NoError(t, err)

	got, err := r.Get(ctx, id)
	require.NoError(t, err)
	got.Data.Name = "mutated"
	got.Data.Slides[0] = "mutated"

	again, err := r.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a", again.Data.Name)
	assert.Equal(t, "s1", again.Data.Slides[0])
}

func TestMemoryRepo_MergeDeployKeepsSiblingSlot(t *testing.T) {
	r := NewMemoryRepo()
	id, err := r.Create(ctx, &deck.Deck{Data: deck.DeckData{Name: "a", OwnerID: "u1"}})
	require.NoError(t, err)

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, r.MergeDeploy(ctx, id, deck.SlotGitHub, deck.DeployData{Status: deck.DeployStatusSuccessful, UpdatedAt: t0}))
	require.NoError(t, r.MergeDeploy(ctx, id, deck.SlotAPI, deck.DeployData{Status: deck.DeployStatusScheduled, UpdatedAt: t0.Add(time.Minute)}))
	require.NoError(t, r.MergeDeploy(ctx, id, deck.SlotAPI, deck.DeployData{Status: deck.DeployStatusScheduled, UpdatedAt: t0.Add(2 * time.Minute)}))

	got, err := r.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.Data.Deploy.GitHub)
	assert.Equal(t, deck.DeployData{Status: deck.DeployStatusSuccessful, UpdatedAt: t0}, *got.Data.Deploy.GitHub)
	assert.Equal(t, t0.Add(2*time.Minute), got.Data.Deploy.API.UpdatedAt)
	assert.Equal(t, "a", got.Data.Name, "unrelated fields survive a merge write")
}

func TestMemoryRepo_MergeDeployCreatesMissingDocument(t *testing.T) {
	r := NewMemoryRepo()
	require.NoError(t, r.MergeDeploy(ctx, "ghost", deck.SlotAPI, deck.DeployData{Status: deck.DeployStatusScheduled}))
	got, err := r.Get(ctx, "ghost")
	require.NoError(t, err)
	assert.Equal(t, deck.DeployStatusScheduled, got.Data.Deploy.API.Status)
	assert.Nil(t, got.Data.Deploy.GitHub)
}

func TestMemoryRepo_MergeDeployRejectsUnknownSlot(t *testing.T) {
	r := NewMemoryRepo()
	require.Error(t, r.MergeDeploy(ctx, "d1", deck.DeploySlot("ftp"), deck.DeployData{}))
}

func TestMemoryRepo_MergeMeta(t *testing.T) {
	r := NewMemoryRepo()
	require.ErrorIs(t, r.MergeMeta(ctx, "missing", deck.DeckMeta{}), ErrNotFound)

	id, err := r.Create(ctx, &deck.Deck{Data: deck.DeckData{Name: "a", OwnerID: "u1"}})
	require.NoError(t, err)
	require.NoError(t, r.MergeDeploy(ctx, id, deck.SlotAPI, deck.DeployData{Status: deck.DeployStatusScheduled}))
	require.NoError(t, r.MergeMeta(ctx, id, deck.DeckMeta{Title: "a", Pathname: "a", Published: true}))

	got, err := r.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.Data.Meta)
	assert.True(t, got.Data.Meta.Published)
	assert.Equal(t, deck.DeployStatusScheduled, got.Data.Deploy.API.Status)
}
