package watchlist

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"DivergenceSentinel/internal/model"
	"DivergenceSentinel/internal/symbol"
)

var (
	ErrExists   = errors.New("already in watchlist")
	ErrNotFound = errors.New("not in watchlist")
)

// Service applies the watchlist rules on top of a Repository: codes are
// normalized, duplicates rejected and names looked up when not given.
type Service struct {
	mu    sync.Mutex
	repo  Repository
	names symbol.NameLookup
	now   func() time.Time
}

// NewService creates a Service. names may be nil, in which case items added
// without a name keep an empty one.
func NewService(repo Repository, names symbol.NameLookup) *Service {
	return &Service{repo: repo, names: names, now: time.Now}
}

// Add stores code with name. An empty name triggers a lookup; an unresolved
// lookup stores an empty name.
func (s *Service) Add(ctx context.Context, code, name string) (model.WatchItem, error) {
	canonical := symbol.Canonical(code)
	if !symbol.IsValidCode(canonical) {
		return model.WatchItem{}, fmt.Errorf("%w: %q", symbol.ErrInvalidCode, code)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.repo.LoadAll(ctx)
	if err != nil {
		return model.WatchItem{}, fmt.Errorf("load watchlist: %w", err)
	}
	for _, it := range items {
		if it.Code == canonical {
			return it, fmt.Errorf("%s: %w", canonical, ErrExists)
		}
	}

	name = strings.TrimSpace(name)
	if name == "" && s.names != nil {
		name = s.names.LookupName(ctx, canonical).Or("")
	}

	item := model.WatchItem{Code: canonical, Name: name, AddedAt: s.now()}
	if err := s.repo.Upsert(ctx, item); err != nil {
		return model.WatchItem{}, fmt.Errorf("save watchlist: %w", err)
	}
	log.Printf("[INFO] Watchlist add %s (%s)", item.Code, item.DisplayName())
	return item, nil
}

// Remove deletes code from the watchlist.
func (s *Service) Remove(ctx context.Context, code string) error {
	canonical := symbol.Canonical(code)

	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.repo.Delete(ctx, canonical)
	if err != nil {
		return fmt.Errorf("delete from watchlist: %w", err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", canonical, ErrNotFound)
	}
	log.Printf("[INFO] Watchlist remove %s", canonical)
	return nil
}

// List returns the watchlist in insertion order.
func (s *Service) List(ctx context.Context) ([]model.WatchItem, error) {
	items, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load watchlist: %w", err)
	}
	return items, nil
}

// Codes returns the canonical codes on the watchlist.
func (s *Service) Codes(ctx context.Context) ([]string, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	codes := make([]string, len(items))
	for i, it := range items {
		codes[i] = it.Code
	}
	return codes, nil
}
