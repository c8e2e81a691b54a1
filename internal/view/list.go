package view

import (
	"context"
	"strings"

	"github.com/individuals-mars/seller-admin/pkg/marketplace"
)

// Filter narrows a fetched collection. Search is a case-insensitive
// substring of the name, Category an exact category id. Zero values match
// everything.
type Filter struct {
	Search   string `form:"search" json:"search"`
	Category string `form:"category" json:"category"`
}

// Page is a renderable collection.
type Page[T any] struct {
	Status       Status `json:"status"`
	Items        []T    `json:"items"`
	Total        int    `json:"total"`
	Placeholders int    `json:"placeholders,omitempty"`
	Error        string `json:"error,omitempty"`
}

// ListOptions wires a list view to its page.
type ListOptions[T any] struct {
	Name     func(T) string
	Category func(T) string
	Notifier Notifier
}

// ListView is a fetched collection with client-side filtering.
type ListView[T any] struct {
	loader[[]T]
	name     func(T) string
	category func(T) string
}

// NewListView creates a view over fetch.
func NewListView[T any](fetch func(ctx context.Context, s marketplace.Session) ([]T, error), opts ListOptions[T]) *ListView[T] {
	return &ListView[T]{
		loader: loader[[]T]{
			fetch:  fetch,
			notify: opts.Notifier,
		},
		name:     opts.Name,
		category: opts.Category,
	}
}

// Load fetches the collection, cancelling any load still running.
func (v *ListView[T]) Load(ctx context.Context, s marketplace.Session) error {
	return v.load(ctx, s)
}

// Refresh loads only when nothing was loaded yet or the token changed. It
// reports whether a new load ran.
func (v *ListView[T]) Refresh(ctx context.Context, s marketplace.Session) (bool, error) {
	return v.refresh(ctx, s)
}

// Close cancels an in-flight load. The view cannot load afterwards.
func (v *ListView[T]) Close() {
	v.close()
}

// Page applies f to the fetched collection. No request is made.
func (v *ListView[T]) Page(f Filter) Page[T] {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch v.status {
	case Loading:
		return Page[T]{Status: Loading, Items: []T{}, Placeholders: Placeholders}
	case Failed:
		return Page[T]{Status: Failed, Items: []T{}, Error: v.failure}
	}

	items := v.apply(f)
	p := Page[T]{Status: Ready, Items: items, Total: len(v.result)}
	if len(items) == 0 {
		p.Status = Empty
	}
	return p
}

func (v *ListView[T]) apply(f Filter) []T {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]T, 0, len(v.result))
	for _, item := range v.result {
		if search != "" && v.name != nil && !strings.Contains(strings.ToLower(v.name(item)), search) {
			continue
		}
		if f.Category != "" && v.category != nil && v.category(item) != f.Category {
			continue
		}
		out = append(out, item)
	}
	return out
}
