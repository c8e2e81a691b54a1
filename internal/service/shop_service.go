package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/individuals-mars/seller-admin/internal/models"
	"github.com/individuals-mars/seller-admin/internal/sse"
	"github.com/individuals-mars/seller-admin/internal/view"
	"github.com/individuals-mars/seller-admin/pkg/marketplace"
)

// ShopService serves the shop list, my-shops and shop detail pages.
type ShopService struct {
	client *marketplace.Client
	hub    *sse.Hub
	all    *viewCache[*view.ListView[models.Shop]]
	mine   *viewCache[*view.ListView[models.Shop]]
}

// NewShopService creates a new ShopService.
func NewShopService(client *marketplace.Client, hub *sse.Hub) *ShopService {
	return &ShopService{
		client: client,
		hub:    hub,
		all:    newViewCache[*view.ListView[models.Shop]](),
		mine:   newViewCache[*view.ListView[models.Shop]](),
	}
}

func shopName(s models.Shop) string { return s.Name }

func (s *ShopService) mount(cache *viewCache[*view.ListView[models.Shop]], sess marketplace.Session, fetch func(context.Context, marketplace.Session) ([]models.Shop, error)) *view.ListView[models.Shop] {
	key := sess.Key()
	return cache.get(key, func() *view.ListView[models.Shop] {
		return view.NewListView(fetch, view.ListOptions[models.Shop]{
			Name:     shopName,
			Notifier: s.hub.For(key),
		})
	})
}

// List returns the all-shops page. reload forces a fetch even when the
// token did not change.
func (s *ShopService) List(ctx context.Context, sess marketplace.Session, f view.Filter, reload bool) (view.Page[models.Shop], error) {
	v := s.mount(s.all, sess, s.client.ListShops)
	return page(ctx, v, sess, f, reload)
}

// Mine returns the shops owned by the session's seller.
func (s *ShopService) Mine(ctx context.Context, sess marketplace.Session, f view.Filter, reload bool) (view.Page[models.Shop], error) {
	v := s.mount(s.mine, sess, s.client.ListMyShops)
	return page(ctx, v, sess, f, reload)
}

// Detail loads one shop.
func (s *ShopService) Detail(ctx context.Context, sess marketplace.Session, id string) (view.Detail[models.Shop], error) {
	v := view.NewDetailView(func(ctx context.Context, sess marketplace.Session) (*models.Shop, error) {
		return s.client.GetShop(ctx, id, sess)
	}, s.hub.For(sess.Key()))
	defer v.Close()

	err := v.Load(ctx, sess)
	return v.Detail(), err
}

// Invalidate drops the cached shop lists of a session after a change.
func (s *ShopService) Invalidate(sess marketplace.Session) {
	s.all.invalidate(sess.Key())
	s.mine.invalidate(sess.Key())
}

// Sweep unmounts lists not requested since before.
func (s *ShopService) Sweep(before time.Time) int {
	return s.all.sweep(before) + s.mine.sweep(before)
}

// Close unmounts every list.
func (s *ShopService) Close() {
	s.all.closeAll()
	s.mine.closeAll()
}

func page[T any](ctx context.Context, v *view.ListView[T], sess marketplace.Session, f view.Filter, reload bool) (view.Page[T], error) {
	var err error
	if reload {
		err = v.Load(ctx, sess)
	} else {
		_, err = v.Refresh(ctx, sess)
	}
	if errors.Is(err, view.ErrSuperseded) {
		log.Debug().Msg("[VIEW] Load superseded by a newer one")
		err = nil
	}
	return v.Page(f), err
}
