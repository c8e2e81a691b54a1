package marketplace

import (
	"context"

	"github.com/individuals-mars/seller-admin/internal/models"
)

// ListShops returns every shop visible to the session.
func (c *Client) ListShops(ctx context.Context, s Session) ([]models.Shop, error) {
	items, err := c.List(ctx, ResourceShops, s)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Shop](items)
}

// ListMyShops returns the shops owned by the session's seller.
func (c *Client) ListMyShops(ctx context.Context, s Session) ([]models.Shop, error) {
	items, err := c.List(ctx, ResourceMyShops, s)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Shop](items)
}

// GetShop fetches one shop.
func (c *Client) GetShop(ctx context.Context, id string, s Session) (*models.Shop, error) {
	raw, err := c.Get(ctx, ResourceShops, id, s)
	if err != nil {
		return nil, err
	}
	return decodeOne[models.Shop](raw)
}

// CreateShop creates a shop. A non-nil logo is sent as the "image" part of
// a multipart body.
func (c *Client) CreateShop(ctx context.Context, p models.ShopPayload, logo *File, s Session) (*models.Shop, error) {
	raw, err := c.Create(ctx, ResourceShops, shopBody(p, logo), s)
	if err != nil {
		return nil, err
	}
	return decodeOne[models.Shop](raw)
}

// UpdateShop replaces a shop's editable fields.
func (c *Client) UpdateShop(ctx context.Context, id string, p models.ShopPayload, logo *File, s Session) (*models.Shop, error) {
	raw, err := c.Update(ctx, ResourceShops, id, shopBody(p, logo), s)
	if err != nil {
		return nil, err
	}
	shop, err := decodeOne[models.Shop](raw)
	if err != nil {
		return nil, err
	}
	if shop.ID == "" {
		shop.ID = id
	}
	return shop, nil
}

// DeleteShop removes a shop.
func (c *Client) DeleteShop(ctx context.Context, id string, s Session) error {
	return c.Remove(ctx, ResourceShops, id, s)
}

func shopBody(p models.ShopPayload, logo *File) Body {
	body := Body{JSON: p, JSONField: "shop"}
	if logo != nil {
		f := *logo
		if f.Field == "" {
			f.Field = "image"
		}
		body.Files = []File{f}
	}
	return body
}
