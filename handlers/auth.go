package handlers

import (
	"net/http"

	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/auth"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/pkg/logger"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// RegisterAuth mounts POST /auth/logout. rg must run AuthMiddleware first.
func RegisterAuth(rg gin.IRoutes, a *auth.Authenticator) {
	rg.POST("/auth/logout", func(c *gin.Context) {
		claims, _ := c.Get(middleware.ClaimsKey)
		m, _ := claims.(map[string]interface{})
		if err := a.Revoke(c.Request.Context(), auth.ExtractToken(c.Request), m); err != nil {
			logger.Errorf("logout %s: %v", middleware.Subject(c), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
			return
		}
		// drop the hosting session cookie too
		c.SetCookie(auth.SessionCookie, "", -1, "/", "", true, true)
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	})
}
