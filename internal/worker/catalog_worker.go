package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// CategoryRefresher reloads the cached category tree.
type CategoryRefresher interface {
	RefreshCategories(ctx context.Context) (int, error)
}

// CatalogWorker keeps the category cache warm so form pages open without
// waiting on the marketplace.
type CatalogWorker struct {
	catalog  CategoryRefresher
	interval time.Duration
}

// NewCatalogWorker constructs a CatalogWorker.
func NewCatalogWorker(catalog CategoryRefresher, interval time.Duration) *CatalogWorker {
	return &CatalogWorker{catalog: catalog, interval: interval}
}

// Start refreshes once, then on every tick until ctx is cancelled.
func (w *CatalogWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting catalog worker")

	w.run(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Catalog worker stopped")
			return
		}
	}
}

func (w *CatalogWorker) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, w.interval)
	defer cancel()

	n, err := w.catalog.RefreshCategories(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("[CATALOG] Category refresh failed")
		return
	}
	log.Debug().Int("categories", n).Msg("[CATALOG] Categories refreshed")
}
