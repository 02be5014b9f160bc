package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"DivergenceSentinel/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists analysis history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode lets the API read history while a scan writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

// DB exposes the handle so the watchlist can live in the same file.
func (r *SQLiteRecorder) DB() *sql.DB { return r.db }

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT,
			symbol      TEXT NOT NULL,
			name        TEXT,
			analyzed_at INTEGER NOT NULL,
			last_date   INTEGER,
			last_close  REAL,
			trend       TEXT,
			level       TEXT,
			confidence  REAL,
			signals     TEXT,
			reason      TEXT,
			details     TEXT,
			advice      TEXT,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_ts ON analyses(analyzed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_symbol ON analyses(symbol)`,

		`CREATE TABLE IF NOT EXISTS scan_runs (
			id          TEXT PRIMARY KEY,
			trigger     TEXT,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER,
			symbols     INTEGER,
			found       INTEGER,
			failed      INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_ts ON scan_runs(started_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordAnalysis(ctx context.Context, rec *AnalysisRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var lastDate int64
	if !rec.LastDate.IsZero() {
		lastDate = rec.LastDate.Unix()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO analyses
		(run_id, symbol, name, analyzed_at, last_date, last_close, trend, level,
		 confidence, signals, reason, details, advice, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.RunID, rec.Symbol, rec.Name, rec.AnalyzedAt.UnixMilli(), lastDate, rec.LastClose,
		string(rec.Trend), string(rec.Level), rec.Confidence, joinSignals(rec.Signals),
		string(rec.Reason), rec.Details, rec.Advice, rec.Error,
	)
	return err
}

func (r *SQLiteRecorder) RecordScan(ctx context.Context, run *ScanRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT OR REPLACE INTO scan_runs
		(id, trigger, started_at, finished_at, symbols, found, failed)
		VALUES (?,?,?,?,?,?,?)`,
		run.ID, run.Trigger, run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(),
		run.Symbols, run.Found, run.Failed,
	)
	return err
}

// RecentAnalyses returns the newest records first.
func (r *SQLiteRecorder) RecentAnalyses(ctx context.Context, limit int) ([]AnalysisRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `SELECT run_id, symbol, name, analyzed_at, last_date, last_close,
		trend, level, confidence, signals, reason, details, advice, error
		FROM analyses ORDER BY analyzed_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	out := []AnalysisRecord{}
	for rows.Next() {
		var (
			rec                           AnalysisRecord
			analyzedAt, lastDate          int64
			trend, level, signals, reason string
		)
		if err := rows.Scan(&rec.RunID, &rec.Symbol, &rec.Name, &analyzedAt, &lastDate, &rec.LastClose,
			&trend, &level, &rec.Confidence, &signals, &reason, &rec.Details, &rec.Advice, &rec.Error); err != nil {
			return nil, fmt.Errorf("scan analyses: %w", err)
		}
		rec.AnalyzedAt = time.UnixMilli(analyzedAt)
		if lastDate != 0 {
			rec.LastDate = time.Unix(lastDate, 0)
		}
		rec.Trend = model.Trend(trend)
		rec.Level = model.Level(level)
		rec.Reason = model.NoDivergenceReason(reason)
		rec.Signals = splitSignals(signals)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

func joinSignals(signals []model.SignalName) string {
	parts := make([]string, len(signals))
	for i, s := range signals {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}

func splitSignals(s string) []model.SignalName {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]model.SignalName, len(parts))
	for i, p := range parts {
		out[i] = model.SignalName(p)
	}
	return out
}
