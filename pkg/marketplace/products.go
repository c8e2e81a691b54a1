package marketplace

import (
	"context"

	"github.com/individuals-mars/seller-admin/internal/models"
)

// ListProducts returns every product visible to the session.
func (c *Client) ListProducts(ctx context.Context, s Session) ([]models.Product, error) {
	items, err := c.List(ctx, ResourceProducts, s)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Product](items)
}

// CreateProduct posts a product as multipart: the structured fields in the
// "product" part, then one "images" part per image and an optional
// "certificate" part.
func (c *Client) CreateProduct(ctx context.Context, p models.ProductPayload, images []File, certificate *File, s Session) (*models.Product, error) {
	// The backend only reads products from multipart bodies.
	body := Body{JSON: p, JSONField: "product", Multipart: true}
	for _, img := range images {
		img.Field = "images"
		body.Files = append(body.Files, img)
	}
	if certificate != nil {
		cert := *certificate
		cert.Field = "certificate"
		body.Files = append(body.Files, cert)
	}

	raw, err := c.Create(ctx, ResourceProducts, body, s)
	if err != nil {
		return nil, err
	}
	return decodeOne[models.Product](raw)
}

// ListCategories returns the public category tree.
func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	items, err := c.List(ctx, ResourceCategories, Session{})
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Category](items)
}
