package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/chapterdesk/internal/security"
)

// CSRFToken handles GET /api/csrf
// Issues the anti-forgery token bound to the caller's CSRF cookie.
func CSRFToken(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{"csrf_token": security.GetCSRFToken(c)})
}
