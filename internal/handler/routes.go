package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/individuals-mars/seller-admin/internal/middleware"
)

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health  *HealthHandler
	Shop    *ShopHandler
	Product *ProductHandler
	Form    *FormHandler
	Preview *PreviewHandler
	SSE     *SSEHandler
}

// SetupRoutes registers all routes.
func SetupRoutes(router *gin.Engine, handlers *Handlers, sessionMiddleware *middleware.SessionMiddleware) {
	router.GET("/v1/health", handlers.Health.GetHealth)

	// Public catalog data
	router.GET("/v1/categories", handlers.Product.ListCategories)

	// Seller routes (require a backend session token)
	v1 := router.Group("/v1")
	v1.Use(sessionMiddleware.Handle())
	{
		v1.GET("/notifications/stream", handlers.SSE.Stream)
		v1.GET("/previews/:ref", handlers.Preview.GetPreview)

		// Shops
		v1.GET("/shops", handlers.Shop.ListShops)
		v1.GET("/shops/mine", handlers.Shop.MyShops)
		v1.GET("/shops/:id", handlers.Shop.GetShop)
		v1.POST("/shops/:id/delete", handlers.Shop.OpenDeletion)
		v1.POST("/deletions/:id/confirm", handlers.Shop.ConfirmDeletion)

		// Products
		v1.GET("/products", handlers.Product.ListProducts)
		v1.GET("/products/form-options", handlers.Product.FormOptions)

		// Forms
		v1.POST("/forms/shops", handlers.Form.StartShop)
		v1.POST("/forms/shops/:id", handlers.Form.EditShop)
		v1.POST("/forms/products", handlers.Form.StartProduct)
		v1.GET("/forms/:formId", handlers.Form.GetForm)
		v1.PATCH("/forms/:formId", handlers.Form.PatchForm)
		v1.DELETE("/forms/:formId", handlers.Form.CancelForm)
		v1.POST("/forms/:formId/images", handlers.Form.StageImages)
		v1.DELETE("/forms/:formId/images/:index", handlers.Form.RemoveImage)
		v1.POST("/forms/:formId/submit", handlers.Form.SubmitForm)
	}
}
