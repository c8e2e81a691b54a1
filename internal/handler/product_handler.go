package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/individuals-mars/seller-admin/internal/middleware"
	"github.com/individuals-mars/seller-admin/internal/service"
	"github.com/individuals-mars/seller-admin/internal/utils"
)

// ProductHandler handles the seller's product list and catalog lookups.
type ProductHandler struct {
	products *service.ProductService
}

// NewProductHandler constructs a ProductHandler.
func NewProductHandler(products *service.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// ListProducts handles GET /v1/products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	f, reload, err := listQuery(c)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	page, err := h.products.List(c.Request.Context(), middleware.GetSession(c), f, reload)
	if err != nil {
		respondError(c, err, page)
		return
	}
	utils.Success(c, 200, "Products retrieved", page)
}

// ListCategories handles GET /v1/categories
func (h *ProductHandler) ListCategories(c *gin.Context) {
	categories, err := h.products.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err, nil)
		return
	}
	utils.Success(c, 200, "Categories retrieved", categories)
}

// FormOptions handles GET /v1/products/form-options
func (h *ProductHandler) FormOptions(c *gin.Context) {
	opts, err := h.products.FormOptions(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	utils.Success(c, 200, "Form options retrieved", opts)
}
