package handler

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/individuals-mars/seller-admin/internal/middleware"
	"github.com/individuals-mars/seller-admin/internal/sse"
)

// SSEHandler streams notifications and redirects to dashboard tabs.
type SSEHandler struct {
	hub *sse.Hub
}

// NewSSEHandler creates a new SSEHandler.
func NewSSEHandler(hub *sse.Hub) *SSEHandler {
	return &SSEHandler{hub: hub}
}

// Stream handles GET /v1/notifications/stream?token=<jwt>
// EventSource API cannot set custom headers, so the token may be passed via query param.
func (h *SSEHandler) Stream(c *gin.Context) {
	sess := middleware.GetSession(c)
	topic := sess.Key()
	clientID := "tab-" + uuid.New().String()[:8]

	// SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // Disable nginx buffering

	client := h.hub.Register(clientID, topic)
	defer h.hub.Unregister(clientID)

	// Send initial connected event
	c.SSEvent("connected", gin.H{
		"clientId":  clientID,
		"message":   "SSE connection established",
		"timestamp": time.Now().Format(time.RFC3339),
	})
	c.Writer.Flush()

	log.Info().Str("client_id", clientID).Str("session", topic).Msg("[SSE] Stream started")

	var expired <-chan time.Time
	if claims, ok := sess.Claims(); ok && !claims.ExpiresAt.IsZero() {
		timer := time.NewTimer(time.Until(claims.ExpiresAt))
		defer timer.Stop()
		expired = timer.C
	}

	// Stream events
	c.Stream(func(w io.Writer) bool {
		select {
		case data, ok := <-client.Events:
			if !ok {
				return false
			}
			c.SSEvent("message", string(data))
			return true
		case <-expired:
			c.SSEvent("message", string(sse.LoginRedirect()))
			log.Info().Str("client_id", clientID).Msg("[SSE] Session expired, stream closed")
			return false
		case <-time.After(30 * time.Second):
			c.SSEvent("ping", gin.H{"timestamp": time.Now().Format(time.RFC3339)})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
