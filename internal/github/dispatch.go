package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/config"
	gh "github.com/google/go-github/v66/github"
)

// ErrNotConfigured is returned when no target repository or token is set.
var ErrNotConfigured = errors.New("github dispatch not configured")

// Payload is sent as client_payload of the repository_dispatch event.
type Payload struct {
	DeckID  string `json:"deckId"`
	OwnerID string `json:"ownerId"`
}

// Dispatcher triggers repository_dispatch events on one repository.
type Dispatcher struct {
	client    *gh.Client
	owner     string
	repo      string
	eventType string
}

// NewDispatcher builds a client for cfg.Repository ("owner/name"). An empty
// repository or token yields a dispatcher whose Dispatch returns ErrNotConfigured.
func NewDispatcher(cfg config.GitHubConfig) (*Dispatcher, error) {
	d := &Dispatcher{eventType: cfg.EventType}
	if d.eventType == "" {
		d.eventType = "deckdeckgo-push"
	}
	if cfg.Repository == "" || cfg.Token == "" {
		return d, nil
	}
	owner, repo, ok := strings.Cut(cfg.Repository, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, fmt.Errorf("GITHUB_REPOSITORY must be owner/name, got %q", cfg.Repository)
	}
	client := gh.NewClient(&http.Client{Timeout: 15 * time.Second}).WithAuthToken(cfg.Token)
	if cfg.APIURL != "" && strings.TrimRight(cfg.APIURL, "/") != "https://api.github.com" {
		base, err := url.Parse(strings.TrimRight(cfg.APIURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("GITHUB_API_URL: %w", err)
		}
		client.BaseURL = base
	}
	d.client, d.owner, d.repo = client, owner, repo
	return d, nil
}

// Dispatch posts the event.
func (d *Dispatcher) Dispatch(ctx context.Context, p Payload) error {
	if d.client == nil {
		return ErrNotConfigured
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	msg := json.RawMessage(raw)
	_, _, err = d.client.Repositories.Dispatch(ctx, d.owner, d.repo, gh.DispatchRequestOptions{
		EventType:     d.eventType,
		ClientPayload: &msg,
	})
	if err != nil {
		return fmt.Errorf("repository dispatch %s/%s: %w", d.owner, d.repo, err)
	}
	return nil
}
