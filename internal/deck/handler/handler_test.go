package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/deck"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/deck/repository"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/deck/service"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newEngine stands in for AuthMiddleware with an X-Test-Sub header.
func newEngine(repo repository.Repository) *gin.Engine {
	g := gin.New()
	api := g.Group("/api", func(c *gin.Context) {
		c.Set(middleware.SubjectKey, c.GetHeader("X-Test-Sub"))
		c.Next()
	})
	RegisterDeckRoutes(api, service.New(repo))
	return g
}

func do(g *gin.Engine, method, path, sub, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("X-Test-Sub", sub)
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

func TestDeckHandler_CRUD(t *testing.T) {
	g := newEngine(repository.NewMemoryRepo())

	w := do(g, http.MethodPost, "/api/decks", "u1", `{"name":"My deck","slides":["s1"]}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var cr map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cr))
	id := cr["id"]
	require.NotEmpty(t, id)

	w = do(g, http.MethodGet, "/api/decks/"+id, "u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got deck.Deck
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "My deck", got.Data.Name)
	assert.Equal(t, "u1", got.Data.OwnerID)

	w = do(g, http.MethodPatch, "/api/decks/"+id, "u1", `{"name":"Renamed"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(g, http.MethodGet, "/api/decks", "u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Renamed", list[0]["name"])

	w = do(g, http.MethodDelete, "/api/decks/"+id, "u1", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(g, http.MethodGet, "/api/decks/"+id, "u1", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeckHandler_OtherOwnerForbidden(t *testing.T) {
	g := newEngine(repository.NewMemoryRepo())

	w := do(g, http.MethodPost, "/api/decks", "u1", `{"name":"Private"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var cr map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cr))

	assert.Equal(t, http.StatusForbidden, do(g, http.MethodGet, "/api/decks/"+cr["id"], "u2", "").Code)
	assert.Equal(t, http.StatusForbidden, do(g, http.MethodDelete, "/api/decks/"+cr["id"], "u2", "").Code)
}

func TestDeckHandler_Validation(t *testing.T) {
	g := newEngine(repository.NewMemoryRepo())

	w := do(g, http.MethodPost, "/api/decks", "u1", `{"name":""}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Deck name is required.")

	w = do(g, http.MethodPost, "/api/decks", "u1", `{not json`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeckHandler_Deploy(t *testing.T) {
	repo := repository.NewMemoryRepo()
	g := newEngine(repo)

	w := do(g, http.MethodPost, "/api/decks", "u1", `{"name":"a"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var cr map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cr))
	id := cr["id"]

	require.NoError(t, repo.MergeDeploy(t.Context(), id, deck.SlotAPI, deck.DeployData{Status: deck.DeployStatusScheduled}))

	w = do(g, http.MethodGet, "/api/decks/"+id+"/deploy", "u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		DeckID string          `json:"deckId"`
		Deploy deck.DeckDeploy `json:"deploy"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.DeckID)
	require.NotNil(t, resp.Deploy.API)
	assert.Equal(t, deck.DeployStatusScheduled, resp.Deploy.API.Status)
	assert.Nil(t, resp.Deploy.GitHub)
}

func TestDeckHandler_DeploySlot(t *testing.T) {
	repo := repository.NewMemoryRepo()
	g := newEngine(repo)

	w := do(g, http.MethodPost, "/api/decks", "u1", `{"name":"a"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var cr map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cr))
	id := cr["id"]

	require.NoError(t, repo.MergeDeploy(t.Context(), id, deck.SlotGitHub, deck.DeployData{Status: deck.DeployStatusFailure}))

	var resp struct {
		Slot   deck.DeploySlot  `json:"slot"`
		Status *deck.DeployData `json:"status"`
	}
	w = do(g, http.MethodGet, "/api/decks/"+id+"/deploy?slot=github", "u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, deck.SlotGitHub, resp.Slot)
	require.NotNil(t, resp.Status)
	assert.Equal(t, deck.DeployStatusFailure, resp.Status.Status)

	resp.Status = nil
	w = do(g, http.MethodGet, "/api/decks/"+id+"/deploy?slot=api", "u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Nil(t, resp.Status, "api was never scheduled")

	w = do(g, http.MethodGet, "/api/decks/"+id+"/deploy?slot=ftp", "u1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
