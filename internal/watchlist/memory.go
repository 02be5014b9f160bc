package watchlist

import (
	"context"
	"sync"

	"DivergenceSentinel/internal/model"
)

// MemoryRepository is an in-process Repository, used in tests and with the mock data source.
type MemoryRepository struct {
	mu    sync.Mutex
	items []model.WatchItem
}

func NewMemoryRepository(items ...model.WatchItem) *MemoryRepository {
	return &MemoryRepository{items: append([]model.WatchItem(nil), items...)}
}

func (r *MemoryRepository) LoadAll(_ context.Context) ([]model.WatchItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.WatchItem{}, r.items...), nil
}

func (r *MemoryRepository) Upsert(_ context.Context, item model.WatchItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].Code == item.Code {
			r.items[i] = item
			return nil
		}
	}
	r.items = append(r.items, item)
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].Code == code {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}
