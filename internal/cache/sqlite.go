// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is a persistent TTL cache. Values are stored as JSON. Lookup
// failures are logged and reported as misses.
type SQLite[V any] struct {
	db     *sql.DB
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// OpenSQLite opens or creates the cache database at path.
func OpenSQLite[V any](path string, ttl time.Duration, logger *slog.Logger) (*SQLite[V], error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS entries (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		expires_at INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &SQLite[V]{db: db, ttl: ttl, logger: logger, now: time.Now}, nil
}

// Close releases the database connection.
func (s *SQLite[V]) Close() error {
	return s.db.Close()
}

// Get returns the value for key, deleting it when expired.
func (s *SQLite[V]) Get(key string) (V, bool) {
	var zero V
	var raw string
	var expiresAt int64
	err := s.db.QueryRow(`SELECT value, expires_at FROM entries WHERE key = ?`, key).Scan(&raw, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, false
	}
	if err != nil {
		s.logger.Warn("cache lookup failed", "key", key, "error", err)
		return zero, false
	}

	if s.now().UnixNano() > expiresAt {
		if _, err := s.db.Exec(`DELETE FROM entries WHERE key = ?`, key); err != nil {
			s.logger.Warn("cache eviction failed", "key", key, "error", err)
		}
		return zero, false
	}

	var v V
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		s.logger.Warn("cache entry undecodable", "key", key, "error", err)
		return zero, false
	}
	return v, true
}

// Set stores value under key with a fresh lifetime.
func (s *SQLite[V]) Set(key string, value V) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("cache entry unencodable", "key", key, "error", err)
		return
	}
	expiresAt := s.now().Add(s.ttl).UnixNano()
	if _, err := s.db.Exec(
		`INSERT INTO entries (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, string(data), expiresAt,
	); err != nil {
		s.logger.Warn("cache store failed", "key", key, "error", err)
	}
}

// Purge deletes every expired entry and returns how many were removed.
func (s *SQLite[V]) Purge() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM entries WHERE expires_at < ?`, s.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("purging expired entries: %w", err)
	}
	return res.RowsAffected()
}
