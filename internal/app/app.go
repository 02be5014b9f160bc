package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"DivergenceSentinel/internal/collector"
	"DivergenceSentinel/internal/config"
	"DivergenceSentinel/internal/recorder"
	"DivergenceSentinel/internal/scanner"
	"DivergenceSentinel/internal/symbol"
	"DivergenceSentinel/internal/watchlist"
)

// App holds the components shared by the daemon and the CLI.
type App struct {
	Config   *config.Config
	Scanner  *scanner.Scanner
	Recorder recorder.Recorder
}

// Build wires fetcher, name lookup, recorder and watchlist from cfg.
// The caller must Close the returned App.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	scoring, err := cfg.Analysis.Scoring()
	if err != nil {
		return nil, err
	}

	fetcher, err := NewFetcher(cfg.DataSource.Provider, cfg.DataSource.Proxy)
	if err != nil {
		return nil, err
	}
	if fb := cfg.DataSource.Fallback; fb != "" && fb != cfg.DataSource.Provider {
		secondary, err := NewFetcher(fb, cfg.DataSource.Proxy)
		if err != nil {
			return nil, err
		}
		fetcher = collector.FallbackFetcher{fetcher, secondary}
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	var names symbol.NameLookup = symbol.StaticNameLookup{}
	if cfg.DataSource.Provider != "mock" {
		names = symbol.NewCachedNameLookup(symbol.NewTencentNameLookup(cfg.DataSource.Proxy))
	}

	rec, err := openRecorder(cfg.Database.SQLitePath)
	if err != nil {
		return nil, err
	}

	repo, err := openRepository(ctx, cfg, rec)
	if err != nil {
		rec.Close()
		return nil, err
	}
	wl := watchlist.NewService(repo, names)
	if err := seed(ctx, wl, cfg.Watchlist.Seed); err != nil {
		rec.Close()
		return nil, err
	}

	col := collector.NewCollector(fetcher, cfg.DataSource.Lookback)
	return &App{
		Config:   cfg,
		Scanner:  scanner.New(col, wl, names, rec, scoring, cfg.Scan.Concurrency),
		Recorder: rec,
	}, nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.Recorder.Close()
}

// NewFetcher returns the fetcher for a provider name.
func NewFetcher(provider, proxy string) (collector.Fetcher, error) {
	switch provider {
	case "tencent":
		return collector.NewTencentFetcher(proxy), nil
	case "yahoo":
		return collector.NewYahooFetcher(proxy), nil
	case "mock":
		return &collector.MockFetcher{}, nil
	default:
		return nil, fmt.Errorf("unknown data provider %q", provider)
	}
}

func openRecorder(path string) (recorder.Recorder, error) {
	if path == "" {
		return recorder.NewNoopRecorder(), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	sr, err := recorder.NewSQLiteRecorder(path)
	if err != nil {
		log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		return recorder.NewNoopRecorder(), nil
	}
	return sr, nil
}

func openRepository(ctx context.Context, cfg *config.Config, rec recorder.Recorder) (watchlist.Repository, error) {
	switch cfg.Watchlist.Backend {
	case "json":
		return watchlist.NewJSONFileRepository(cfg.Watchlist.Path), nil
	case "memory":
		return watchlist.NewMemoryRepository(), nil
	case "sqlite":
		sr, ok := rec.(*recorder.SQLiteRecorder)
		if !ok {
			return nil, fmt.Errorf("watchlist backend sqlite needs database.sqlite_path")
		}
		return watchlist.NewSQLiteRepository(ctx, sr.DB())
	default:
		return nil, fmt.Errorf("unknown watchlist backend %q", cfg.Watchlist.Backend)
	}
}

// seed adds the configured codes when the watchlist is empty.
func seed(ctx context.Context, wl *watchlist.Service, codes []string) error {
	if len(codes) == 0 {
		return nil
	}
	items, err := wl.List(ctx)
	if err != nil {
		return err
	}
	if len(items) > 0 {
		return nil
	}
	for _, code := range codes {
		if _, err := wl.Add(ctx, code, ""); err != nil {
			log.Printf("[WARN] seed watchlist %s: %v", code, err)
		}
	}
	return nil
}
