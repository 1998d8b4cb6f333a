package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"
)

// SQLite is a Cache backed by a single SQLite table. The atomic take is a
// DELETE ... RETURNING, so two concurrent GetAndDelete calls on one key are
// serialized by the database and exactly one of them sees the row.
type SQLite struct {
	db    *sql.DB
	table string
	now   func() time.Time
}

// SQLiteOption configures a SQLite cache.
type SQLiteOption func(*SQLite)

// WithTable overrides the table name. Default: "cache_entries".
func WithTable(name string) SQLiteOption {
	return func(s *SQLite) { s.table = name }
}

// NewSQLite creates a Cache over an already-open database handle.
// Call EnsureTable once at startup.
func NewSQLite(db *sql.DB, opts ...SQLiteOption) *SQLite {
	s := &SQLite{db: db, table: "cache_entries", now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// EnsureTable creates the cache table and its expiry index if absent.
func (s *SQLite) EnsureTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			key        TEXT PRIMARY KEY,
			value      BLOB,
			expires_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%[1]s_expires ON %[1]s (expires_at);
	`, s.table))
	return err
}

// SetWithTTL implements Cache. Re-setting an existing key replaces it.
func (s *SQLite) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	expiresAt := s.now().Add(ttl).UnixMilli()
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (key, value, expires_at) VALUES (?,?,?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		s.table),
		key, value, expiresAt,
	)
	return err
}

// GetAndDelete implements Cache. Expired rows are deleted but not returned.
func (s *SQLite) GetAndDelete(ctx context.Context, key string) ([]byte, bool, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE key = ? RETURNING value, expires_at`, s.table),
		key,
	)

	var value []byte
	var expiresAt int64
	err := row.Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if s.now().UnixMilli() > expiresAt {
		return nil, false, nil
	}
	return value, true, nil
}

// Sweep deletes expired rows. Unconsumed snapshots expire silently, so a
// periodic sweep keeps the table from accumulating dead entries.
func (s *SQLite) Sweep(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE expires_at < ?`, s.table),
		s.now().UnixMilli(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Open opens an SQLite database at path with production-safe pragmas
// (WAL, busy_timeout, NORMAL synchronous). The caller must blank-import a
// driver first:
//
//	import _ "modernc.org/sqlite"
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("cache: %s: %w", p, err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: ping: %w", err)
	}
	return db, nil
}

// OpenMemory opens an in-memory SQLite database for testing. MaxOpenConns(1)
// keeps every query on the same connection (each ":memory:" connection is a
// separate database). Closing is registered with t.Cleanup.
func OpenMemory(t testing.TB) *sql.DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("cache.OpenMemory: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}
