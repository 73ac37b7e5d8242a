package middleware

import (
	"errors"
	"net/http"

	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/auth"
	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	ClaimsKey  = "claims"
	SubjectKey = "sub"
)

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using the provided authenticator
func AuthMiddleware(a *auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := auth.ExtractToken(c.Request)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := a.Claims(c.Request.Context(), raw)
		switch {
		case errors.Is(err, auth.ErrTokenRevoked):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token revoked"})
			return
		case errors.Is(err, auth.ErrInvalidToken):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "details": err.Error()})
			return
		case err != nil:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token check failed"})
			return
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token has no subject"})
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(SubjectKey, sub)
		c.Next()
	}
}

// Subject returns the authenticated subject stored by AuthMiddleware.
func Subject(c *gin.Context) string {
	return c.GetString(SubjectKey)
}
