package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/individuals-mars/seller-admin/internal/middleware"
	"github.com/individuals-mars/seller-admin/internal/service"
	"github.com/individuals-mars/seller-admin/internal/utils"
	"github.com/individuals-mars/seller-admin/internal/view"
)

// ShopHandler handles shop list, detail and delete endpoints.
type ShopHandler struct {
	shops *service.ShopService
	forms *service.FormService
}

// NewShopHandler constructs a ShopHandler.
func NewShopHandler(shops *service.ShopService, forms *service.FormService) *ShopHandler {
	return &ShopHandler{shops: shops, forms: forms}
}

// listQuery reads the filter and the reload flag of a list request.
func listQuery(c *gin.Context) (view.Filter, bool, error) {
	var f view.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		return f, false, utils.ErrInvalidRequest
	}
	return f, c.Query("reload") == "true", nil
}

// ListShops handles GET /v1/shops
func (h *ShopHandler) ListShops(c *gin.Context) {
	f, reload, err := listQuery(c)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	page, err := h.shops.List(c.Request.Context(), middleware.GetSession(c), f, reload)
	if err != nil {
		respondError(c, err, page)
		return
	}
	utils.Success(c, 200, "Shops retrieved", page)
}

// MyShops handles GET /v1/shops/mine
func (h *ShopHandler) MyShops(c *gin.Context) {
	f, reload, err := listQuery(c)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	page, err := h.shops.Mine(c.Request.Context(), middleware.GetSession(c), f, reload)
	if err != nil {
		respondError(c, err, page)
		return
	}
	utils.Success(c, 200, "Shops retrieved", page)
}

// GetShop handles GET /v1/shops/:id
func (h *ShopHandler) GetShop(c *gin.Context) {
	detail, err := h.shops.Detail(c.Request.Context(), middleware.GetSession(c), c.Param("id"))
	if err != nil {
		respondError(c, err, detail)
		return
	}
	utils.Success(c, 200, "Shop retrieved", detail)
}

// OpenDeletion handles POST /v1/shops/:id/delete
func (h *ShopHandler) OpenDeletion(c *gin.Context) {
	d, err := h.forms.OpenShopDeletion(middleware.GetSession(c), c.Param("id"))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	utils.Success(c, 201, d.Gate.Prompt, d)
}

// ConfirmDeletion handles POST /v1/deletions/:id/confirm
func (h *ShopHandler) ConfirmDeletion(c *gin.Context) {
	res, d, err := h.forms.ConfirmDeletion(c.Request.Context(), middleware.GetSession(c), c.Param("id"))
	if err != nil {
		respondError(c, err, d)
		return
	}
	utils.SuccessRedirect(c, 200, res.Message, nil, res.Navigate)
}
