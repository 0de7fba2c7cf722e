package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store   Pinger
	version string
}

func NewHealthHandler(store Pinger, version string) *HealthHandler {
	return &HealthHandler{store: store, version: version}
}

// Register mounts the liveness and readiness probes. They are
// unauthenticated so load balancers can reach them.
func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/healthz", h.live)
	r.GET("/health", h.ready)
}

func (h *HealthHandler) live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "version": h.version})
}

func (h *HealthHandler) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "storage unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "version": h.version})
}
