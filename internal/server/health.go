package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health reports liveness and which collaborators were configured at startup.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":              "ok",
		"openai_configured":   h.openaiConfigured,
		"database_configured": h.databaseConfigured,
		"timestamp":           time.Now().UTC().Format(time.RFC3339),
	})
}
