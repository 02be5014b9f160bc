package watchlist

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"DivergenceSentinel/internal/model"
)

// SQLiteRepository stores the watchlist in a SQLite table. The *sql.DB is
// shared with the history recorder and owned by the caller.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates the watchlist table if needed.
func NewSQLiteRepository(ctx context.Context, db *sql.DB) (*SQLiteRepository, error) {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS watchlist (
		code     TEXT PRIMARY KEY,
		name     TEXT NOT NULL DEFAULT '',
		added_at INTEGER NOT NULL
	)`)
	if err != nil {
		return nil, fmt.Errorf("create watchlist table: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) LoadAll(ctx context.Context) ([]model.WatchItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT code, name, added_at FROM watchlist ORDER BY added_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("query watchlist: %w", err)
	}
	defer rows.Close()

	items := []model.WatchItem{}
	for rows.Next() {
		var (
			it      model.WatchItem
			addedAt int64
		)
		if err := rows.Scan(&it.Code, &it.Name, &addedAt); err != nil {
			return nil, fmt.Errorf("scan watchlist: %w", err)
		}
		it.AddedAt = time.Unix(addedAt, 0)
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *SQLiteRepository) Upsert(ctx context.Context, item model.WatchItem) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO watchlist (code, name, added_at) VALUES (?,?,?)
		ON CONFLICT(code) DO UPDATE SET name = excluded.name`,
		item.Code, item.Name, item.AddedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", item.Code, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, code string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM watchlist WHERE code = ?`, code)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", code, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
