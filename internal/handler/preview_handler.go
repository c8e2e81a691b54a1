package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/individuals-mars/seller-admin/internal/middleware"
	"github.com/individuals-mars/seller-admin/internal/staging"
	"github.com/individuals-mars/seller-admin/internal/utils"
)

// PreviewHandler serves staged images while their form is open.
type PreviewHandler struct {
	previews *staging.Previews
}

// NewPreviewHandler creates a new PreviewHandler.
func NewPreviewHandler(previews *staging.Previews) *PreviewHandler {
	return &PreviewHandler{previews: previews}
}

// GetPreview handles GET /v1/previews/:ref. Only the session that staged
// the image can read it back.
func (h *PreviewHandler) GetPreview(c *gin.Context) {
	data, contentType, ok := h.previews.Resolve(c.Param("ref"), middleware.GetSession(c).Key())
	if !ok {
		utils.Error(c, 404, "NOT_FOUND", "Preview not found")
		return
	}
	c.Header("Cache-Control", "private, no-store")
	c.Data(200, contentType, data)
}
