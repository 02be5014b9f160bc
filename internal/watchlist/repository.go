package watchlist

import (
	"context"

	"DivergenceSentinel/internal/model"
)

// Repository stores watchlist items keyed by canonical code.
type Repository interface {
	// LoadAll returns every item in insertion order.
	LoadAll(ctx context.Context) ([]model.WatchItem, error)
	// Upsert inserts item or replaces the item with the same code.
	Upsert(ctx context.Context, item model.WatchItem) error
	// Delete removes code and reports whether it was present.
	Delete(ctx context.Context, code string) (bool, error)
}
