package watchlist

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"DivergenceSentinel/internal/model"
	"DivergenceSentinel/internal/symbol"
)

func repositories(t *testing.T) map[string]Repository {
	t.Helper()
	dir := t.TempDir()

	db, err := sql.Open("sqlite", filepath.Join(dir, "watch.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	sqliteRepo, err := NewSQLiteRepository(context.Background(), db)
	if err != nil {
		t.Fatal(err)
	}

	return map[string]Repository{
		"json":   NewJSONFileRepository(filepath.Join(dir, "nested", "watchlist.json")),
		"memory": NewMemoryRepository(),
		"sqlite": sqliteRepo,
	}
}

func TestRepositories(t *testing.T) {
	ctx := context.Background()
	added := time.Unix(1700000000, 0)
	for name, repo := range repositories(t) {
		items, err := repo.LoadAll(ctx)
		if err != nil || len(items) != 0 {
			t.Fatalf("%s: expected empty watchlist, got %v %v", name, items, err)
		}

		for i, code := range []string{"sh600519", "sz000001", "sz300750"} {
			if err := repo.Upsert(ctx, model.WatchItem{Code: code, AddedAt: added.Add(time.Duration(i) * time.Second)}); err != nil {
				t.Fatalf("%s: upsert %s: %v", name, code, err)
			}
		}
		if err := repo.Upsert(ctx, model.WatchItem{Code: "sz000001", Name: "平安银行", AddedAt: added.Add(time.Second)}); err != nil {
			t.Fatalf("%s: update: %v", name, err)
		}

		items, err = repo.LoadAll(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 3 {
			t.Fatalf("%s: expected 3 items, got %d", name, len(items))
		}
		if items[0].Code != "sh600519" || items[1].Name != "平安银行" || items[2].Code != "sz300750" {
			t.Errorf("%s: unexpected items %+v", name, items)
		}

		ok, err := repo.Delete(ctx, "sz000001")
		if err != nil || !ok {
			t.Errorf("%s: delete existing: %v %v", name, ok, err)
		}
		ok, err = repo.Delete(ctx, "sz000001")
		if err != nil || ok {
			t.Errorf("%s: delete missing: %v %v", name, ok, err)
		}
		items, _ = repo.LoadAll(ctx)
		if len(items) != 2 {
			t.Errorf("%s: expected 2 items after delete, got %d", name, len(items))
		}
	}
}

func TestJSONFileRepository_ReadsLegacyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "self_selection.json")
	legacy := `[{"code": "sh600519", "name": "贵州茅台"}, {"code": "sz000001", "name": ""}]`
	if err := os.WriteFile(path, []byte(legacy), 0644); err != nil {
		t.Fatal(err)
	}
	items, err := NewJSONFileRepository(path).LoadAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0].Name != "贵州茅台" || items[1].DisplayName() != "sz000001" {
		t.Errorf("unexpected items %+v", items)
	}

	if err := os.WriteFile(path, []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewJSONFileRepository(path).LoadAll(context.Background()); err == nil {
		t.Error("expected decode error")
	}
}

func TestService_Add(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository(), symbol.StaticNameLookup{"sh600519": "贵州茅台"})

	item, err := svc.Add(ctx, " 600519 ", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Code != "sh600519" || item.Name != "贵州茅台" {
		t.Errorf("unexpected item %+v", item)
	}

	if _, err := svc.Add(ctx, "sh600519", ""); !errors.Is(err, ErrExists) {
		t.Errorf("expected ErrExists, got %v", err)
	}

	item, err = svc.Add(ctx, "000001", "")
	if err != nil {
		t.Fatal(err)
	}
	if item.Name != "" {
		t.Errorf("unresolved name should be stored empty, got %q", item.Name)
	}

	item, err = svc.Add(ctx, "300750", "宁德时代")
	if err != nil || item.Name != "宁德时代" {
		t.Errorf("explicit name should be kept: %+v %v", item, err)
	}

	if _, err := svc.Add(ctx, "12345", ""); !errors.Is(err, symbol.ErrInvalidCode) {
		t.Errorf("expected ErrInvalidCode, got %v", err)
	}

	codes, err := svc.Codes(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"sh600519", "sz000001", "sz300750"}
	if len(codes) != len(want) {
		t.Fatalf("expected %v, got %v", want, codes)
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("expected %v, got %v", want, codes)
		}
	}
}

func TestService_Remove(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository(model.WatchItem{Code: "sh600519"}), nil)

	if err := svc.Remove(ctx, "600519"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Remove(ctx, "600519"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	items, _ := svc.List(ctx)
	if len(items) != 0 {
		t.Errorf("expected empty watchlist, got %v", items)
	}
}
