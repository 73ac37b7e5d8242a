package publish

import (
	"context"
	"errors"
	"testing"

	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/deck"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStatus records MarkScheduled calls into a shared step log.
type fakeStatus struct {
	steps *[]string
	calls []Request
	err   error
}

func (f *fakeStatus) MarkScheduled(ctx context.Context, deckID, ownerID string, publish, github bool) error {
	*f.steps = append(*f.steps, "status")
	f.calls = append(f.calls, Request{DeckID: deckID, OwnerID: ownerID, Publish: publish, GitHub: github})
	return f.err
}

type scheduled struct {
	deckID, token string
	typ           queue.TaskType
}

type fakeScheduler struct {
	steps *[]string
	jobs  []scheduled
	errOn map[queue.TaskType]error
}

func (f *fakeScheduler) Schedule(ctx context.Context, deckID, token string, typ queue.TaskType) error {
	*f.steps = append(*f.steps, string(typ))
	f.jobs = append(f.jobs, scheduled{deckID: deckID, token: token, typ: typ})
	return f.errOn[typ]
}

type fakeAuth struct{ valid string }

func (f fakeAuth) Authenticate(ctx context.Context, token string) (string, error) {
	if token != f.valid {
		return "", errors.New("bad token")
	}
	return "u1", nil
}

type fixture struct {
	*Service
	steps []string
	st    *fakeStatus
	sched *fakeScheduler
}

func newFixture(auth Authenticator) *fixture {
	fx := &fixture{}
	fx.st = &fakeStatus{steps: &fx.steps}
	fx.sched = &fakeScheduler{steps: &fx.steps, errOn: map[queue.TaskType]error{}}
	fx.Service = NewService(fx.st, fx.sched, auth)
	return fx
}

var ctx = context.Background()

func TestSchedule_Validation(t *testing.T) {
	cases := []struct {
		name  string
		token string
		req   Request
		want  error
	}{
		{"missing token", "", Request{DeckID: "d1", OwnerID: "u1", Publish: true}, ErrNoToken},
		{"missing token wins over missing deck", "", Request{}, ErrNoToken},
		{"missing deck", "tok", Request{OwnerID: "u1", Publish: true}, ErrNoDeck},
		{"missing deck wins over missing owner", "tok", Request{Publish: true}, ErrNoDeck},
		{"missing owner", "tok", Request{DeckID: "d1", GitHub: true}, ErrNoOwner},
		{"nothing to publish", "tok", Request{DeckID: "d1", OwnerID: "u1"}, ErrNothingToPublish},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fx := newFixture(nil)
			_, err := fx.Schedule(ctx, tc.token, tc.req)
			require.ErrorIs(t, err, tc.want)
			assert.True(t, IsValidation(err))
			assert.Empty(t, fx.steps, "no write and no job on rejection")
		})
	}
}

func TestSchedule_ReasonStrings(t *testing.T) {
	assert.Equal(t, "No token provided.", ErrNoToken.Error())
	assert.Equal(t, "No deck information provided.", ErrNoDeck.Error())
	assert.Equal(t, "No owner ID provided.", ErrNoOwner.Error())
	assert.Equal(t, "Nothing to publish.", ErrNothingToPublish.Error())
}

func TestSchedule_InvalidTokenWithAuthenticator(t *testing.T) {
	fx := newFixture(fakeAuth{valid: "good"})
	_, err := fx.Schedule(ctx, "bad", Request{DeckID: "d1", OwnerID: "u1", Publish: true})
	require.ErrorIs(t, err, ErrInvalidToken)
	assert.Empty(t, fx.steps)

	_, err = fx.Schedule(ctx, "good", Request{DeckID: "d1", OwnerID: "u1", Publish: true})
	require.NoError(t, err)
}

func TestSchedule_PublishOnly(t *testing.T) {
	fx := newFixture(nil)
	res, err := fx.Schedule(ctx, "tok", Request{DeckID: "d1", OwnerID: "u1", Publish: true})
	require.NoError(t, err)

	assert.Equal(t, deck.ScheduledPublishTask{DeckID: "d1", Status: deck.DeployStatusScheduled, Publish: true, GitHub: false}, res)
	assert.Equal(t, []Request{{DeckID: "d1", OwnerID: "u1", Publish: true}}, fx.st.calls)
	assert.Equal(t, []scheduled{{deckID: "d1", token: "tok", typ: queue.TypePublishDeck}}, fx.sched.jobs)
	assert.Equal(t, []string{"status", "publish-deck"}, fx.steps)
}

func TestSchedule_GitHubOnly(t *testing.T) {
	fx := newFixture(nil)
	res, err := fx.Schedule(ctx, "tok", Request{DeckID: "d1", OwnerID: "u1", GitHub: true})
	require.NoError(t, err)

	assert.Equal(t, deck.ScheduledPublishTask{DeckID: "d1", Status: deck.DeployStatusScheduled, Publish: false, GitHub: true}, res)
	assert.Equal(t, []scheduled{{deckID: "d1", token: "tok", typ: queue.TypePushGitHub}}, fx.sched.jobs)
}

func TestSchedule_BothChannelsInOrder(t *testing.T) {
	fx := newFixture(nil)
	res, err := fx.Schedule(ctx, "tok", Request{DeckID: "d1", OwnerID: "u1", Publish: true, GitHub: true})
	require.NoError(t, err)

	assert.True(t, res.Publish)
	assert.True(t, res.GitHub)
	assert.Equal(t, []string{"status", "publish-deck", "push-github"}, fx.steps)
	require.Len(t, fx.st.calls, 1)
}

func TestSchedule_StatusWriteFailure(t *testing.T) {
	fx := newFixture(nil)
	boom := errors.New("db unavailable")
	fx.st.err = boom

	_, err := fx.Schedule(ctx, "tok", Request{DeckID: "d1", OwnerID: "u1", Publish: true, GitHub: true})
	require.ErrorIs(t, err, boom)
	assert.False(t, IsValidation(err))
	assert.Empty(t, fx.sched.jobs, "no job after a failed status write")
}

func TestSchedule_FirstSubmissionFailure(t *testing.T) {
	fx := newFixture(nil)
	boom := errors.New("queue down")
	fx.sched.errOn[queue.TypePublishDeck] = boom

	_, err := fx.Schedule(ctx, "tok", Request{DeckID: "d1", OwnerID: "u1", Publish: true, GitHub: true})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"status", "publish-deck"}, fx.steps, "push-github is not attempted")
	assert.Len(t, fx.st.calls, 1, "the status write is not undone")
}

func TestSchedule_SecondSubmissionFailure(t *testing.T) {
	fx := newFixture(nil)
	boom := errors.New("queue down")
	fx.sched.errOn[queue.TypePushGitHub] = boom

	_, err := fx.Schedule(ctx, "tok", Request{DeckID: "d1", OwnerID: "u1", Publish: true, GitHub: true})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"status", "publish-deck", "push-github"}, fx.steps)
}
