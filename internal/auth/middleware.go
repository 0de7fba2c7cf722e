package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireAuth validates the bearer credential on every request and stores
// the resolved subject in the context. Requests without a valid token
// never reach the handlers.
func RequireAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "authorization token is missing"})
			c.Abort()
			return
		}

		subject, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, ErrKeySetUnavailable) {
				c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "token validation unavailable"})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid token"})
			}
			c.Abort()
			return
		}

		c.Set(ctxSubject, subject)
		c.Next()
	}
}

// extractToken extracts the Bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		return bearerToken[7:]
	}
	return ""
}
