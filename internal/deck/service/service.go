package service

import (
	"context"
	"errors"
	"strings"

	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/deck"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/deck/repository"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("deck belongs to another user")
	ErrNameRequired = errors.New("Deck name is required.")
)

// CreateInput carries the client-editable fields of a new deck.
type CreateInput struct {
	Name       string
	Slides     []string
	Attributes *deck.DeckAttributes
	Background string
	Header     string
	Footer     string
}

// Service implements the owner-scoped deck operations used by the handler layer.
type Service struct {
	repo repository.Repository
}

func New(repo repository.Repository) *Service {
	return &Service{repo: repo}
}

// Create stores a new deck owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*deck.Deck, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	d := &deck.Deck{Data: deck.DeckData{
		Name:       name,
		OwnerID:    ownerID,
		Slides:     in.Slides,
		Attributes: in.Attributes,
		Background: in.Background,
		Header:     in.Header,
		Footer:     in.Footer,
	}}
	if _, err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Get returns the deck when ownerID owns it.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*deck.Deck, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if d.Data.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return d, nil
}

func (s *Service) List(ctx context.Context, ownerID string) ([]*deck.Deck, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *Service) Rename(ctx context.Context, ownerID, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	return s.mapNotFound(s.repo.UpdateName(ctx, id, name))
}

func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	return s.mapNotFound(s.repo.Delete(ctx, id))
}

// Deploy returns the deploy sub-record of an owned deck; it may be nil.
func (s *Service) Deploy(ctx context.Context, ownerID, id string) (*deck.DeckDeploy, error) {
	d, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return d.Data.Deploy, nil
}

func (s *Service) mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
