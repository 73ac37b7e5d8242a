package deck

import "time"

// Deck is the persisted presentation document. ID is the document key.
type Deck struct {
	ID   string   `json:"id" bson:"_id"`
	Data DeckData `json:"data" bson:",inline"`
}

type DeckData struct {
	Name string `json:"name" bson:"name"`

	Attributes *DeckAttributes `json:"attributes,omitempty" bson:"attributes,omitempty"`
	Background string          `json:"background,omitempty" bson:"background,omitempty"`
	Header     string          `json:"header,omitempty" bson:"header,omitempty"`
	Footer     string          `json:"footer,omitempty" bson:"footer,omitempty"`

	OwnerID string `json:"owner_id" bson:"owner_id"`

	Slides []string `json:"slides,omitempty" bson:"slides,omitempty"`

	APIID string `json:"api_id,omitempty" bson:"api_id,omitempty"`

	Meta   *DeckMeta   `json:"meta,omitempty" bson:"meta,omitempty"`
	Clone  *DeckClone  `json:"clone,omitempty" bson:"clone,omitempty"`
	Deploy *DeckDeploy `json:"deploy,omitempty" bson:"deploy,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

type DeckAttributes struct {
	Style      string `json:"style,omitempty" bson:"style,omitempty"`
	Transition string `json:"transition,omitempty" bson:"transition,omitempty"` // slide | fade | none
}

type DeckMetaAuthor struct {
	Name     string            `json:"name" bson:"name"`
	PhotoURL string            `json:"photo_url,omitempty" bson:"photo_url,omitempty"`
	Social   map[string]string `json:"social,omitempty" bson:"social,omitempty"`
}

// DeckMeta exists once a deck has been published at least once.
type DeckMeta struct {
	Title       string          `json:"title" bson:"title"`
	Description string          `json:"description,omitempty" bson:"description,omitempty"`
	Tags        []string        `json:"tags,omitempty" bson:"tags,omitempty"`
	Pathname    string          `json:"pathname" bson:"pathname"`
	Author      *DeckMetaAuthor `json:"author,omitempty" bson:"author,omitempty"`
	Published   bool            `json:"published" bson:"published"`
	PublishedAt time.Time       `json:"published_at" bson:"published_at"`
	Feed        bool            `json:"feed" bson:"feed"`
	GitHub      bool            `json:"github,omitempty" bson:"github,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at" bson:"updated_at"`
}

type DeckClone struct {
	DeckIDFrom string `json:"deck_id_from,omitempty" bson:"deck_id_from,omitempty"`
	DeckIDTo   string `json:"deck_id_to,omitempty" bson:"deck_id_to,omitempty"`
}

// DeckDeploy holds one independent status per publish channel.
type DeckDeploy struct {
	API    *DeployData `json:"api,omitempty" bson:"api,omitempty"`
	GitHub *DeployData `json:"github,omitempty" bson:"github,omitempty"`
}

// Slot returns the status stored for s, or nil.
func (d *DeckDeploy) Slot(s DeploySlot) *DeployData {
	if d == nil {
		return nil
	}
	switch s {
	case SlotAPI:
		return d.API
	case SlotGitHub:
		return d.GitHub
	}
	return nil
}

type DeployStatus string

const (
	DeployStatusScheduled  DeployStatus = "scheduled"
	DeployStatusSuccessful DeployStatus = "successful"
	DeployStatusFailure    DeployStatus = "failure"
)

type DeployData struct {
	Status    DeployStatus `json:"status" bson:"status"`
	UpdatedAt time.Time    `json:"updated_at" bson:"updated_at"`
}

// DeploySlot names a publish channel; its value is the key under "deploy".
type DeploySlot string

const (
	SlotAPI    DeploySlot = "api"
	SlotGitHub DeploySlot = "github"
)

func (s DeploySlot) Valid() bool {
	return s == SlotAPI || s == SlotGitHub
}

// ScheduledPublishTask is the response of a successful publish request. It is never persisted.
type ScheduledPublishTask struct {
	DeckID  string       `json:"deckId"`
	Status  DeployStatus `json:"status"`
	Publish bool         `json:"publish"`
	GitHub  bool         `json:"github"`
}
