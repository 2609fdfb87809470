package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"recipe-verifier/internal/core/ingredient"
)

// Handler serves liveness and readiness probes.
type Handler struct {
	started time.Time
	version string
	db      *ingredient.Database
}

// NewHandler builds a health Handler.
func NewHandler(version string, db *ingredient.Database) *Handler {
	return &Handler{started: time.Now(), version: version, db: db}
}

// Health reports overall service status.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"version":     h.version,
		"uptime":      time.Since(h.started).String(),
		"ingredients": h.db.Len(),
	})
}

// Live is the liveness probe.
func (h *Handler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// Ready is the readiness probe; the service is ready once the ingredient
// database is loaded.
func (h *Handler) Ready(c *gin.Context) {
	if h.db == nil || h.db.Len() == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": "ingredient database empty"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
