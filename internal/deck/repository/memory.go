package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/deck"
	"github.com/google/uuid"
)

// MemoryRepo is an in-memory Repository used by tests and by the API server
// when no MongoDB is configured.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*deck.Deck
	now   func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*deck.Deck), now: func() time.Time { return time.Now().UTC() }}
}

func (m *MemoryRepo) Create(ctx context.Context, d *deck.Deck) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if _, exists := m.store[d.ID]; exists {
		return "", fmt.Errorf("deck %s already exists", d.ID)
	}
	d.Data.CreatedAt = m.now()
	d.Data.UpdatedAt = d.Data.CreatedAt
	m.store[d.ID] = clone(d)
	return d.ID, nil
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (*deck.Deck, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.store[id]; ok {
		return clone(d), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) ListByOwner(ctx context.Context, ownerID string) ([]*deck.Deck, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*deck.Deck, 0)
	for _, d := range m.store {
		if d.Data.OwnerID == ownerID {
			out = append(out, clone(d))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Data.UpdatedAt.After(out[j].Data.UpdatedAt)
	})
	return out, nil
}

func (m *MemoryRepo) UpdateName(ctx context.Context, id, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	d.Data.Name = name
	d.Data.UpdatedAt = m.now()
	return nil
}

func (m *MemoryRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *MemoryRepo) MergeDeploy(ctx context.Context, id string, slot deck.DeploySlot, data deck.DeployData) error {
	if !slot.Valid() {
		return fmt.Errorf("unknown deploy slot %q", slot)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		d = &deck.Deck{ID: id}
		m.store[id] = d
	}
	if d.Data.Deploy == nil {
		d.Data.Deploy = &deck.DeckDeploy{}
	}
	v := data
	switch slot {
	case deck.SlotAPI:
		d.Data.Deploy.API = &v
	case deck.SlotGitHub:
		d.Data.Deploy.GitHub = &v
	}
	return nil
}

func (m *MemoryRepo) MergeMeta(ctx context.Context, id string, meta deck.DeckMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	v := meta
	d.Data.Meta = &v
	return nil
}

// clone copies d deep enough that callers cannot mutate stored state.
func clone(d *deck.Deck) *deck.Deck {
	c := *d
	if d.Data.Slides != nil {
		c.Data.Slides = append([]string(nil), d.Data.Slides...)
	}
	if d.Data.Attributes != nil {
		a := *d.Data.Attributes
		c.Data.Attributes = &a
	}
	if d.Data.Meta != nil {
		meta := *d.Data.Meta
		meta.Tags = append([]string(nil), d.Data.Meta.Tags...)
		c.Data.Meta = &meta
	}
	if d.Data.Clone != nil {
		cl := *d.Data.Clone
		c.Data.Clone = &cl
	}
	if d.Data.Deploy != nil {
		dep := deck.DeckDeploy{}
		if d.Data.Deploy.API != nil {
			api := *d.Data.Deploy.API
			dep.API = &api
		}
		if d.Data.Deploy.GitHub != nil {
			gh := *d.Data.Deploy.GitHub
			dep.GitHub = &gh
		}
		c.Data.Deploy = &dep
	}
	return &c
}
