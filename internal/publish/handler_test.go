package publish

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/auth"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/deck"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/deck/repository"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/queue"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "publish-test-secret"

type stack struct {
	engine *gin.Engine
	repo   *repository.MemoryRepo
	queue  *queue.MemoryQueue
}

func newStack(t *testing.T, withAuth bool) *stack {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s := &stack{repo: repository.NewMemoryRepo(), queue: queue.NewMemoryQueue()}

	var a Authenticator
	if withAuth {
		v, err := auth.NewJWTVerifier(testSecret)
		require.NoError(t, err)
		a = auth.NewAuthenticator(v, nil)
	}
	svc := NewService(NewStatusWriter(s.repo), NewGateway(s.queue), a)

	s.engine = gin.New()
	RegisterRoutes(s.engine.Group("/api"), svc)
	return s
}

func (s *stack) post(body string, header func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/publish", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if header != nil {
		header(req)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func bearer(tok string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestPublishHandler_BothChannels(t *testing.T) {
	s := newStack(t, false)

	w := s.post(`{"deckId":"d1","ownerId":"u1","publish":true,"github":true}`, bearer("tok"))
	require.Equal(t, http.StatusOK, w.Code)

	var res deck.ScheduledPublishTask
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, deck.ScheduledPublishTask{DeckID: "d1", Status: deck.DeployStatusScheduled, Publish: true, GitHub: true}, res)

	got, err := s.repo.Get(t.Context(), "d1")
	require.NoError(t, err)
	require.NotNil(t, got.Data.Deploy)
	require.NotNil(t, got.Data.Deploy.API)
	assert.Equal(t, deck.DeployStatusScheduled, got.Data.Deploy.API.Status)
	assert.Nil(t, got.Data.Deploy.GitHub, "the github slot is not written when publish is also requested")

	pending := s.queue.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, queue.TypePublishDeck, pending[0].Type)
	assert.Equal(t, queue.TypePushGitHub, pending[1].Type)
	for _, task := range pending {
		assert.Equal(t, "d1", task.DeckID)
		assert.Equal(t, "tok", task.Token)
	}
}

func TestPublishHandler_GitHubOnlyFromCookie(t *testing.T) {
	s := newStack(t, false)

	w := s.post(`{"deckId":"d1","ownerId":"u1","github":true}`, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: "cookie-tok"})
	})
	require.Equal(t, http.StatusOK, w.Code)

	got, err := s.repo.Get(t.Context(), "d1")
	require.NoError(t, err)
	require.NotNil(t, got.Data.Deploy.GitHub)
	assert.Nil(t, got.Data.Deploy.API)

	pending := s.queue.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, queue.TypePushGitHub, pending[0].Type)
	assert.Equal(t, "cookie-tok", pending[0].Token)
}

func TestPublishHandler_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		header func(*http.Request)
		code   int
		reason string
	}{
		{"no token", `{"deckId":"d1","ownerId":"u1","publish":true}`, nil, http.StatusUnauthorized, "No token provided."},
		{"non bearer scheme", `{"deckId":"d1","ownerId":"u1","publish":true}`, func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") }, http.StatusUnauthorized, "No token provided."},
		{"malformed body without token", `{`, nil, http.StatusUnauthorized, "No token provided."},
		{"malformed body", `{`, bearer("tok"), http.StatusBadRequest, "Invalid request body."},
		{"empty body", ``, bearer("tok"), http.StatusBadRequest, "No deck information provided."},
		{"no deck", `{"ownerId":"u1","publish":true}`, bearer("tok"), http.StatusBadRequest, "No deck information provided."},
		{"no owner", `{"deckId":"d1","publish":true}`, bearer("tok"), http.StatusBadRequest, "No owner ID provided."},
		{"nothing to publish", `{"deckId":"d1","ownerId":"u1"}`, bearer("tok"), http.StatusBadRequest, "Nothing to publish."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newStack(t, false)
			w := s.post(tc.body, tc.header)
			assert.Equal(t, tc.code, w.Code)
			assert.Equal(t, tc.reason, errorOf(t, w))

			_, err := s.repo.Get(t.Context(), "d1")
			assert.ErrorIs(t, err, repository.ErrNotFound, "no status written")
			assert.Empty(t, s.queue.Pending(), "no job submitted")
		})
	}
}

func TestPublishHandler_VerifiesTokenWhenConfigured(t *testing.T) {
	s := newStack(t, true)
	body := `{"deckId":"d1","ownerId":"u1","publish":true}`

	w := s.post(body, bearer("not-a-jwt"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token provided.", errorOf(t, w))
	assert.Empty(t, s.queue.Pending())

	tok, err := auth.SignToken(testSecret, "u1", time.Minute)
	require.NoError(t, err)
	w = s.post(body, bearer(tok))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, s.queue.Pending(), 1)
}

func TestPublishHandler_StatusWriteFailureIs500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	q := queue.NewMemoryQueue()
	svc := NewService(NewStatusWriter(&recordingMerger{err: assert.AnError}), NewGateway(q), nil)
	g := gin.New()
	RegisterRoutes(g, svc)

	req := httptest.NewRequest(http.MethodPost, "/publish", strings.NewReader(`{"deckId":"d1","ownerId":"u1","publish":true}`))
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, q.Pending())
}
