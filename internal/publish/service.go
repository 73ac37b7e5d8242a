package publish

import (
	"context"
	"errors"

	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/deck"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/queue"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/pkg/logger"
)

// Rejection reasons, returned verbatim to the caller.
var (
	ErrNoToken          = errors.New("No token provided.")
	ErrInvalidToken     = errors.New("Invalid token provided.")
	ErrNoDeck           = errors.New("No deck information provided.")
	ErrNoOwner          = errors.New("No owner ID provided.")
	ErrNothingToPublish = errors.New("Nothing to publish.")
)

// IsValidation reports whether err is one of the rejection reasons above.
func IsValidation(err error) bool {
	return errors.Is(err, ErrNoToken) || errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrNoDeck) || errors.Is(err, ErrNoOwner) || errors.Is(err, ErrNothingToPublish)
}

// Request is the body of a publish request.
type Request struct {
	DeckID  string `json:"deckId"`
	OwnerID string `json:"ownerId"`
	Publish bool   `json:"publish"`
	GitHub  bool   `json:"github"`
}

type statusWriter interface {
	MarkScheduled(ctx context.Context, deckID, ownerID string, publish, github bool) error
}

type scheduler interface {
	Schedule(ctx context.Context, deckID, token string, typ queue.TaskType) error
}

// Authenticator checks the caller token. Optional.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// Service schedules deck publication.
type Service struct {
	status    statusWriter
	scheduler scheduler
	auth      Authenticator
}

// NewService wires the flow. auth may be nil, in which case any non-empty token is accepted.
func NewService(status statusWriter, sched scheduler, auth Authenticator) *Service {
	return &Service{status: status, scheduler: sched, auth: auth}
}

// Schedule validates the request, marks the deck as scheduled and enqueues one
// job per requested channel, publish-deck before push-github.
//
// Checks run in this order and the first failure wins: token present, token
// valid, deck id, owner id, at least one channel. Nothing is written before
// all checks pass. Collaborator errors stop the flow and nothing already
// written is undone.
func (s *Service) Schedule(ctx context.Context, token string, req Request) (deck.ScheduledPublishTask, error) {
	if err := s.validate(ctx, token, req); err != nil {
		return deck.ScheduledPublishTask{}, err
	}

	log := logger.With("deckId", req.DeckID, "ownerId", req.OwnerID)

	if err := s.status.MarkScheduled(ctx, req.DeckID, req.OwnerID, req.Publish, req.GitHub); err != nil {
		log.Errorw("deploy status write failed", "error", err)
		return deck.ScheduledPublishTask{}, err
	}

	if req.Publish {
		if err := s.scheduler.Schedule(ctx, req.DeckID, token, queue.TypePublishDeck); err != nil {
			log.Errorw("job submission failed", "type", queue.TypePublishDeck, "error", err)
			return deck.ScheduledPublishTask{}, err
		}
	}
	if req.GitHub {
		if err := s.scheduler.Schedule(ctx, req.DeckID, token, queue.TypePushGitHub); err != nil {
			log.Errorw("job submission failed", "type", queue.TypePushGitHub, "error", err)
			return deck.ScheduledPublishTask{}, err
		}
	}

	log.Infow("publish scheduled", "publish", req.Publish, "github", req.GitHub)
	return deck.ScheduledPublishTask{
		DeckID:  req.DeckID,
		Status:  deck.DeployStatusScheduled,
		Publish: req.Publish,
		GitHub:  req.GitHub,
	}, nil
}

func (s *Service) validate(ctx context.Context, token string, req Request) error {
	if token == "" {
		return ErrNoToken
	}
	if s.auth != nil {
		if _, err := s.auth.Authenticate(ctx, token); err != nil {
			logger.Debugf("publish: token rejected: %v", err)
			return ErrInvalidToken
		}
	}
	if req.DeckID == "" {
		return ErrNoDeck
	}
	if req.OwnerID == "" {
		return ErrNoOwner
	}
	if !req.Publish && !req.GitHub {
		return ErrNothingToPublish
	}
	return nil
}
