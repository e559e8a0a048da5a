package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS registry_cache (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_registry_cache_expires ON registry_cache(expires_at);
`

// SQLite is a file-backed TTL cache shared by every process pointing at the
// same database file
type SQLite struct {
	db    *sql.DB
	clock func() time.Time
}

// OpenSQLite opens (or creates) the cache database at path
func OpenSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create cache directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	if path == ":memory:" {
		// each pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}

	return &SQLite{db: db, clock: time.Now}, nil
}

// WithClock replaces the time source used for expiry
func (c *SQLite) WithClock(clock func() time.Time) *SQLite {
	c.clock = clock
	return c
}

// Get returns the value under key unless expired; expired rows are removed
func (c *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	var expiresAt string

	err := c.db.QueryRowContext(ctx, `
		SELECT value, expires_at
		FROM registry_cache
		WHERE key = ?
	`, key).Scan(&value, &expiresAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache lookup failed: %w", err)
	}

	expiresAtTime, err := time.Parse(time.RFC3339Nano, expiresAt)
	if err != nil {
		return nil, false, fmt.Errorf("invalid expires_at format: %w", err)
	}

	if !c.clock().Before(expiresAtTime) {
		_, _ = c.db.ExecContext(ctx, "DELETE FROM registry_cache WHERE key = ? AND expires_at = ?", key, expiresAt)
		return nil, false, nil
	}

	return value, true, nil
}

// Set stores value under key for ttl
func (c *SQLite) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := c.clock().UTC()
	expiresAt := now.Add(ttl)

	_, err := c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO registry_cache (key, value, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`, key, value, expiresAt.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	return nil
}

// Purge deletes every expired entry and reports how many were removed
func (c *SQLite) Purge(ctx context.Context) (int64, error) {
	// RFC3339Nano strings do not sort lexically when fractional digits differ,
	// so expiry is compared in Go rather than in SQL
	rows, err := c.db.QueryContext(ctx, "SELECT key, expires_at FROM registry_cache")
	if err != nil {
		return 0, fmt.Errorf("scan cache: %w", err)
	}
	now := c.clock()
	var expired []string
	for rows.Next() {
		var key, expiresAt string
		if err := rows.Scan(&key, &expiresAt); err != nil {
			_ = rows.Close()
			return 0, fmt.Errorf("scan cache row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, expiresAt); err != nil || !now.Before(t) {
			expired = append(expired, key)
		}
	}
	if err := rows.Close(); err != nil {
		return 0, err
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	var n int64
	for _, key := range expired {
		res, err := c.db.ExecContext(ctx, "DELETE FROM registry_cache WHERE key = ?", key)
		if err != nil {
			return n, fmt.Errorf("purge cache entry: %w", err)
		}
		affected, _ := res.RowsAffected()
		n += affected
	}
	return n, nil
}

// Shutdown closes the database
func (c *SQLite) Shutdown(context.Context) error {
	return c.db.Close()
}
