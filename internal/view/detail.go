package view

import (
	"context"

	"github.com/individuals-mars/seller-admin/pkg/marketplace"
)

// Detail is a renderable single entity.
type Detail[T any] struct {
	Status Status `json:"status"`
	Item   *T     `json:"item,omitempty"`
	Error  string `json:"error,omitempty"`
}

// DetailView is one fetched entity.
type DetailView[T any] struct {
	loader[*T]
}

// NewDetailView creates a view over fetch.
func NewDetailView[T any](fetch func(ctx context.Context, s marketplace.Session) (*T, error), notify Notifier) *DetailView[T] {
	return &DetailView[T]{
		loader: loader[*T]{fetch: fetch, notify: notify},
	}
}

// Load fetches the entity, cancelling any load still running.
func (v *DetailView[T]) Load(ctx context.Context, s marketplace.Session) error {
	return v.load(ctx, s)
}

// Refresh loads only when nothing was loaded yet or the token changed.
func (v *DetailView[T]) Refresh(ctx context.Context, s marketplace.Session) (bool, error) {
	return v.refresh(ctx, s)
}

// Replace swaps in a fresher copy, such as the response of an update.
func (v *DetailView[T]) Replace(item *T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.result = item
	v.status = Ready
	v.failure = ""
	v.lastErr = nil
}

// Close cancels an in-flight load.
func (v *DetailView[T]) Close() {
	v.close()
}

// Detail returns the current state.
func (v *DetailView[T]) Detail() Detail[T] {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch v.status {
	case Loading:
		return Detail[T]{Status: Loading}
	case Failed:
		return Detail[T]{Status: Failed, Error: v.failure}
	}
	if v.result == nil {
		return Detail[T]{Status: Empty}
	}
	return Detail[T]{Status: Ready, Item: v.result}
}
