// Package store provides a SQLite-backed recommendation history store.
// Every served recommendation is recorded with its raw query, the refined
// query (when refinement ran), and the ranked result URLs, so operators can
// audit what the engine recommended and feed the log back into offline
// evaluation. Records survive server restarts.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// Record is one served recommendation.
type Record struct {
	// Query is the raw query text as received.
	Query string
	// RefinedQuery is the rebuilt retrieval query, empty when refinement
	// was skipped or degraded to the raw text.
	RefinedQuery string
	// K is the requested result count.
	K int
	// ResultURLs are the recommended catalog item URLs in rank order.
	ResultURLs []string
	// Refined reports whether the refinement pipeline ran.
	Refined bool
	// CreatedAt is when the record was persisted.
	CreatedAt time.Time
}

// HistoryStore persists and retrieves recommendation records.
// Implementations must be safe for concurrent use.
type HistoryStore interface {
	// Append persists a single recommendation record.
	Append(ctx context.Context, rec Record) error
	// Recent returns the most recent n records, newest-first.
	// If fewer than n records exist, all are returned.
	Recent(ctx context.Context, n int) ([]Record, error)
	// Close releases any resources held by the store.
	Close() error
}

// SQLiteStore is a HistoryStore backed by a local SQLite database.
type SQLiteStore struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// DefaultDBPath returns the default path for the history database.
// It resolves to ~/.asmrec/history.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".asmrec")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("store: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "history.db"), nil
}

// Open opens (or creates) a SQLiteStore at the given path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteStore, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS recommendations (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    query         TEXT    NOT NULL,
    refined_query TEXT    NOT NULL DEFAULT '',
    k             INTEGER NOT NULL,
    result_urls   TEXT    NOT NULL,  -- JSON array, rank order
    refined       INTEGER NOT NULL DEFAULT 0,
    created_at    INTEGER NOT NULL   -- Unix timestamp (seconds)
);
CREATE INDEX IF NOT EXISTS idx_recommendations_created
    ON recommendations (created_at);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Append persists a single recommendation record.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	urls, err := json.Marshal(rec.ResultURLs)
	if err != nil {
		return fmt.Errorf("store: marshal result urls: %w", err)
	}
	refined := 0
	if rec.Refined {
		refined = 1
	}
	ts := rec.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	const q = `INSERT INTO recommendations (query, refined_query, k, result_urls, refined, created_at)
VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, rec.Query, rec.RefinedQuery, rec.K, string(urls), refined, ts.Unix()); err != nil {
		return fmt.Errorf("store: append: %w", err)
	}
	return nil
}

// Recent returns the most recent n records, newest-first.
func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]Record, error) {
	const q = `
SELECT query, refined_query, k, result_urls, refined, created_at
FROM   recommendations
ORDER  BY created_at DESC, id DESC
LIMIT  ?`

	rows, err := s.db.QueryContext(ctx, q, n)
	if err != nil {
		return nil, fmt.Errorf("store: recent: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var rec Record
		var urls string
		var refined int
		var ts int64
		if err := rows.Scan(&rec.Query, &rec.RefinedQuery, &rec.K, &urls, &refined, &ts); err != nil {
			return nil, fmt.Errorf("store: recent scan: %w", err)
		}
		if err := json.Unmarshal([]byte(urls), &rec.ResultURLs); err != nil {
			return nil, fmt.Errorf("store: recent unmarshal urls: %w", err)
		}
		rec.Refined = refined != 0
		rec.CreatedAt = time.Unix(ts, 0)
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: recent rows: %w", err)
	}
	return recs, nil
}

// Close releases the database connection pool.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}
