package publish

import (
	"errors"
	"io"
	"net/http"

	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/auth"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/pkg/metrics"
	"github.com/gin-gonic/gin"
)

var errBadBody = errors.New("Invalid request body.")

// RegisterRoutes mounts POST /publish on rg. The token is read from the request
// here, not by a middleware, so a missing token is reported with its own reason.
func RegisterRoutes(rg gin.IRoutes, svc *Service) {
	rg.POST("/publish", func(c *gin.Context) {
		token := auth.ExtractToken(c.Request)

		var req Request
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			if token == "" {
				reject(c, ErrNoToken)
			} else {
				reject(c, errBadBody)
			}
			return
		}
		res, err := svc.Schedule(c.Request.Context(), token, req)
		if err != nil {
			reject(c, err)
			return
		}
		metrics.PublishRequests.WithLabelValues("scheduled").Inc()
		c.JSON(http.StatusOK, res)
	})
}

func reject(c *gin.Context, err error) {
	result := "failed"
	if IsValidation(err) || errors.Is(err, errBadBody) {
		result = "rejected"
	}
	metrics.PublishRequests.WithLabelValues(result).Inc()
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNoToken), errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case IsValidation(err), errors.Is(err, errBadBody):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
