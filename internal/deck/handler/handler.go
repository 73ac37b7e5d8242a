package handler

import (
	"errors"
	"net/http"

	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/deck"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/deck/service"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/pkg/logger"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// RegisterDeckRoutes mounts the deck API on rg. rg must run AuthMiddleware first:
// the authenticated subject is the deck owner.
func RegisterDeckRoutes(rg *gin.RouterGroup, svc *service.Service) {
	h := &deckHandler{svc: svc}
	rg.GET("/decks", h.list)
	rg.POST("/decks", h.create)
	rg.GET("/decks/:id", h.get)
	rg.PATCH("/decks/:id", h.rename)
	rg.DELETE("/decks/:id", h.delete)
	rg.GET("/decks/:id/deploy", h.deploy)
}

type deckHandler struct {
	svc *service.Service
}

func (h *deckHandler) list(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), middleware.Subject(c))
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]gin.H, 0, len(list))
	for _, d := range list {
		out = append(out, gin.H{"id": d.ID, "name": d.Data.Name, "updated_at": d.Data.UpdatedAt, "deploy": d.Data.Deploy})
	}
	c.JSON(http.StatusOK, out)
}

func (h *deckHandler) create(c *gin.Context) {
	var req struct {
		Name       string               `json:"name"`
		Slides     []string             `json:"slides"`
		Attributes *deck.DeckAttributes `json:"attributes"`
		Background string               `json:"background"`
		Header     string               `json:"header"`
		Footer     string               `json:"footer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := h.svc.Create(c.Request.Context(), middleware.Subject(c), service.CreateInput{
		Name:       req.Name,
		Slides:     req.Slides,
		Attributes: req.Attributes,
		Background: req.Background,
		Header:     req.Header,
		Footer:     req.Footer,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": d.ID, "name": d.Data.Name})
}

func (h *deckHandler) get(c *gin.Context) {
	d, err := h.svc.Get(c.Request.Context(), middleware.Subject(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *deckHandler) rename(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id := c.Param("id")
	if err := h.svc.Rename(c.Request.Context(), middleware.Subject(c), id, req.Name); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (h *deckHandler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.Subject(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *deckHandler) deploy(c *gin.Context) {
	id := c.Param("id")
	dep, err := h.svc.Deploy(c.Request.Context(), middleware.Subject(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	if s := c.Query("slot"); s != "" {
		slot := deck.DeploySlot(s)
		if !slot.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown deploy slot"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deckId": id, "slot": slot, "status": dep.Slot(slot)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deckId": id, "deploy": dep})
}

func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNameRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Errorf("deck api %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
