package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const ctxSubject = "auth_subject"

// Subject extracts the authenticated caller's stable identifier from the
// Gin context. It is set by RequireAuth.
func Subject(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(ctxSubject))
}
