package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/individuals-mars/seller-admin/internal/models"
)

const categoriesKey = "catalog:categories"

// CatalogCache caches the public category tree.
type CatalogCache struct {
	store Store
	ttl   time.Duration
	group singleflight.Group
}

// NewCatalogCache creates a CatalogCache.
func NewCatalogCache(store Store, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		store: store,
		ttl:   ttl,
	}
}

// Categories returns the cached categories, calling fetch on a miss.
// Concurrent misses share one fetch.
func (c *CatalogCache) Categories(ctx context.Context, fetch func(ctx context.Context) ([]models.Category, error)) ([]models.Category, error) {
	raw, err := c.store.Get(ctx, categoriesKey)
	switch {
	case err == nil:
		var categories []models.Category
		if err := json.Unmarshal([]byte(raw), &categories); err == nil {
			return categories, nil
		}
		log.Warn().Str("key", categoriesKey).Msg("[CACHE] Dropping undecodable categories")
	case !errors.Is(err, ErrMiss):
		log.Warn().Err(err).Str("key", categoriesKey).Msg("[CACHE] Category lookup failed")
	}

	v, err, _ := c.group.Do(categoriesKey, func() (interface{}, error) {
		categories, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.set(ctx, categories); err != nil {
			log.Warn().Err(err).Str("key", categoriesKey).Msg("[CACHE] Failed to store categories")
		}
		return categories, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Category), nil
}

func (c *CatalogCache) set(ctx context.Context, categories []models.Category) error {
	data, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}
	return c.store.Set(ctx, categoriesKey, string(data), c.ttl)
}

// Invalidate drops the cached categories.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	return c.store.Delete(ctx, categoriesKey)
}
