package demo

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Middleware turns the API read-only for public demo instances. Books and
// chapters can be browsed; creating chapters, uploading images, deleting and
// triggering tasks are refused.
type Middleware struct {
	enabled bool
}

// NewMiddleware creates a demo mode middleware.
func NewMiddleware(enabled bool) *Middleware {
	return &Middleware{enabled: enabled}
}

// IsEnabled returns whether demo mode is active.
func (m *Middleware) IsEnabled() bool {
	return m.enabled
}

// Handler returns a Gin middleware that blocks write operations.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.enabled {
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		m.respondBlocked(c)
	}
}

// respondBlocked sends a 403 in the API's error format, or plain text for
// clients that don't ask for JSON.
func (m *Middleware) respondBlocked(c *gin.Context) {
	const message = "This action is disabled in demo mode"

	if strings.Contains(c.GetHeader("Accept"), "application/json") ||
		strings.HasPrefix(c.ContentType(), "application/json") {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": message,
			"code":  "demo_mode",
		})
		return
	}

	c.String(http.StatusForbidden, message)
	c.Abort()
}
