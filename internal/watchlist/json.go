package watchlist

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"DivergenceSentinel/internal/model"
)

// JSONFileRepository keeps the watchlist as an indented JSON array in one file.
// Files written by older versions without added_at load fine.
type JSONFileRepository struct {
	mu       sync.Mutex
	filePath string
}

// NewJSONFileRepository creates a repository backed by filePath. The file is created on first write.
func NewJSONFileRepository(filePath string) *JSONFileRepository {
	return &JSONFileRepository{filePath: filePath}
}

func (r *JSONFileRepository) LoadAll(_ context.Context) ([]model.WatchItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

func (r *JSONFileRepository) Upsert(_ context.Context, item model.WatchItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.load()
	if err != nil {
		return err
	}
	replaced := false
	for i := range items {
		if items[i].Code == item.Code {
			items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		items = append(items, item)
	}
	return r.save(items)
}

func (r *JSONFileRepository) Delete(_ context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.load()
	if err != nil {
		return false, err
	}
	kept := items[:0]
	for _, it := range items {
		if it.Code != code {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(items) {
		return false, nil
	}
	return true, r.save(kept)
}

// load reads the file. A missing file is an empty watchlist.
func (r *JSONFileRepository) load() ([]model.WatchItem, error) {
	data, err := os.ReadFile(r.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.WatchItem{}, nil
		}
		return nil, fmt.Errorf("read watchlist: %w", err)
	}
	items := []model.WatchItem{}
	if len(data) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode watchlist %s: %w", r.filePath, err)
	}
	return items, nil
}

func (r *JSONFileRepository) save(items []model.WatchItem) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(r.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create watchlist dir: %w", err)
		}
	}
	return os.WriteFile(r.filePath, data, 0644)
}
