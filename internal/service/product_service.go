package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/individuals-mars/seller-admin/internal/cache"
	"github.com/individuals-mars/seller-admin/internal/models"
	"github.com/individuals-mars/seller-admin/internal/sse"
	"github.com/individuals-mars/seller-admin/internal/view"
	"github.com/individuals-mars/seller-admin/pkg/marketplace"
)

// ProductService serves the seller's product list, the category tree and
// the options of the create-product form.
type ProductService struct {
	client  *marketplace.Client
	catalog *cache.CatalogCache
	hub     *sse.Hub
	lists   *viewCache[*view.ListView[models.Product]]
}

// NewProductService creates a new ProductService.
func NewProductService(client *marketplace.Client, catalog *cache.CatalogCache, hub *sse.Hub) *ProductService {
	return &ProductService{
		client:  client,
		catalog: catalog,
		hub:     hub,
		lists:   newViewCache[*view.ListView[models.Product]](),
	}
}

// List returns the session seller's products.
func (s *ProductService) List(ctx context.Context, sess marketplace.Session, f view.Filter, reload bool) (view.Page[models.Product], error) {
	key := sess.Key()
	v := s.lists.get(key, func() *view.ListView[models.Product] {
		return view.NewListView(s.sellerProducts, view.ListOptions[models.Product]{
			Name:     func(p models.Product) string { return p.Name },
			Category: func(p models.Product) string { return p.Category.ID },
			Notifier: s.hub.For(key),
		})
	})
	return page(ctx, v, sess, f, reload)
}

// sellerProducts keeps only the products whose seller is the session's.
func (s *ProductService) sellerProducts(ctx context.Context, sess marketplace.Session) ([]models.Product, error) {
	products, err := s.client.ListProducts(ctx, sess)
	if err != nil {
		return nil, err
	}
	seller := sess.SellerID()
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if seller != "" && p.Seller.ID == seller {
			out = append(out, p)
		}
	}
	return out, nil
}

// Categories returns the category tree through the catalog cache.
func (s *ProductService) Categories(ctx context.Context) ([]models.Category, error) {
	return s.catalog.Categories(ctx, s.client.ListCategories)
}

// RefreshCategories drops the cached category tree and fetches it again.
func (s *ProductService) RefreshCategories(ctx context.Context) (int, error) {
	if err := s.catalog.Invalidate(ctx); err != nil {
		return 0, err
	}
	categories, err := s.Categories(ctx)
	return len(categories), err
}

// FormOptions are the select options of the create-product form.
type FormOptions struct {
	Categories []models.Category `json:"categories"`
	Shops      []models.Shop     `json:"shops"`
}

// FormOptions fetches categories and the seller's shops in parallel.
func (s *ProductService) FormOptions(ctx context.Context, sess marketplace.Session) (FormOptions, error) {
	var opts FormOptions
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		categories, err := s.Categories(gctx)
		opts.Categories = categories
		return err
	})
	g.Go(func() error {
		shops, err := s.client.ListMyShops(gctx, sess)
		opts.Shops = shops
		return err
	})
	if err := g.Wait(); err != nil {
		return FormOptions{}, err
	}
	return opts, nil
}

// Invalidate drops the cached product list of a session after a change.
func (s *ProductService) Invalidate(sess marketplace.Session) {
	s.lists.invalidate(sess.Key())
}

// Sweep unmounts lists not requested since before.
func (s *ProductService) Sweep(before time.Time) int {
	return s.lists.sweep(before)
}

// Close unmounts every list.
func (s *ProductService) Close() {
	s.lists.closeAll()
}
