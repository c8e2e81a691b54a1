package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/individuals-mars/seller-admin/internal/service"
	"github.com/individuals-mars/seller-admin/internal/sse"
	"github.com/individuals-mars/seller-admin/internal/utils"
)

var startTime = time.Now()

// Pinger is a dependency whose reachability is reported by the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides health endpoint.
type HealthHandler struct {
	cache Pinger
	forms *service.FormService
	hub   *sse.Hub
}

// NewHealthHandler creates a new HealthHandler. cache may be nil when Redis
// is not configured.
func NewHealthHandler(cache Pinger, forms *service.FormService, hub *sse.Hub) *HealthHandler {
	return &HealthHandler{cache: cache, forms: forms, hub: hub}
}

// GetHealth responds with service and cache status.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	cacheStatus := "memory"
	if h.cache != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		cacheStatus = "connected"
		if err := h.cache.Ping(ctx); err != nil {
			cacheStatus = "disconnected"
		}
	}

	utils.Success(c, 200, "Service is healthy", gin.H{
		"status":    "healthy",
		"version":   "1.0.0",
		"uptime":    int(time.Since(startTime).Seconds()),
		"cache":     cacheStatus,
		"openForms": h.forms.Len(),
		"streams":   h.hub.ClientCount(),
	})
}
