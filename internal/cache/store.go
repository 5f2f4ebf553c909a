// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists normalized search results and item records in a
// quota-aware, expiring key/value store backed by SQLite. The store owns
// every persisted entry: corrupted payloads become a miss and are deleted,
// writes that cannot be serialized are logged and skipped, and writes that
// would exceed the quota evict the oldest entries until they fit.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/curio/pkg/types"
)

const dbFile = "cache.db"

// DefaultTTL is the expiration window applied when a write passes no TTL.
const DefaultTTL = 30 * time.Minute

const defaultQuotaBytes = 5 << 20

// Store is the SQLite-backed result cache. Access funnels through it;
// evict-then-write sequences run in one transaction so a write is atomic
// with the evictions that made room for it.
type Store struct {
	db    *sql.DB
	ttl   time.Duration
	quota int64
	log   logrus.FieldLogger
}

// NewStore opens or creates the cache database at cfg.Dir/cache.db and
// creates the schema if it does not exist.
func NewStore(cfg types.CacheConfig, log logrus.FieldLogger) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = ".curio"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	quota := cfg.QuotaBytes
	if quota <= 0 {
		quota = defaultQuotaBytes
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	s := &Store{db: db, ttl: ttl, quota: quota, log: log}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			key TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			size INTEGER NOT NULL,
			stored_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_stored_at ON entries(stored_at)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_expires_at ON entries(expires_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Get loads the entry for key into v. It reports a miss when the key is
// absent, the entry has expired, or the payload no longer parses; expired
// and corrupted entries are deleted on the way out. Get never fails the
// caller: cache trouble degrades to a miss.
func (s *Store) Get(ctx context.Context, key string, v any) bool {
	var payload string
	var expiresAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, expires_at FROM entries WHERE key = ?`, key,
	).Scan(&payload, &expiresAt)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("cache read failed")
		return false
	}

	if time.Now().Unix() >= expiresAt {
		s.delete(ctx, key)
		return false
	}

	if err := json.Unmarshal([]byte(payload), v); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("cache entry corrupted, evicting")
		s.delete(ctx, key)
		return false
	}
	return true
}

// Set serializes v and stores it under key with the given TTL (the store
// default when ttl <= 0). A payload that cannot be serialized or that is
// larger than the whole quota disables the cache for this write: the
// failure is logged and the previous entry, if any, stays untouched.
// When the write would push the store past its quota, the oldest entries
// by stored_at are evicted inside the same transaction until it fits.
func (s *Store) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	payload, err := json.Marshal(v)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("cache disabled for this write: serialization failed")
		return nil
	}

	size := int64(len(payload))
	if size > s.quota {
		s.log.WithField("key", key).WithField("size", size).Warn("cache disabled for this write: payload exceeds quota")
		return nil
	}

	if ttl <= 0 {
		ttl = s.ttl
	}
	now := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning cache transaction: %w", err)
	}
	defer tx.Rollback()

	// Expired entries go first; they are dead weight either way.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM entries WHERE expires_at <= ?`, now.Unix(),
	); err != nil {
		return fmt.Errorf("evicting expired entries: %w", err)
	}

	// Replacing an entry frees its old size before the quota check.
	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("removing previous entry: %w", err)
	}

	if err := evictOldestUntilFits(ctx, tx, s.quota, size); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO entries (key, payload, size, stored_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)`,
		key, string(payload), size, now.Unix(), now.Add(ttl).Unix(),
	); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}

	return tx.Commit()
}

// evictOldestUntilFits deletes entries oldest-first until the store can
// hold newSize more bytes under quota.
func evictOldestUntilFits(ctx context.Context, tx *sql.Tx, quota, newSize int64) error {
	for {
		var used sql.NullInt64
		if err := tx.QueryRowContext(ctx,
			`SELECT SUM(size) FROM entries`,
		).Scan(&used); err != nil {
			return fmt.Errorf("measuring cache usage: %w", err)
		}
		if used.Int64+newSize <= quota {
			return nil
		}

		res, err := tx.ExecContext(ctx,
			`DELETE FROM entries WHERE key IN (
				SELECT key FROM entries ORDER BY stored_at ASC LIMIT 1
			)`,
		)
		if err != nil {
			return fmt.Errorf("evicting oldest entry: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			// Nothing left to evict; the insert itself fits because the
			// payload was checked against the quota up front.
			return nil
		}
	}
}

// EvictExpired removes all expired entries and returns how many went.
func (s *Store) EvictExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM entries WHERE expires_at <= ?`, time.Now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("evicting expired entries: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Clear removes every entry.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

// Stats summarizes the store's contents.
type Stats struct {
	Entries   int   `json:"entries"`
	UsedBytes int64 `json:"used_bytes"`
	Quota     int64 `json:"quota"`
	Expired   int   `json:"expired"`
}

// Stats reports entry count, payload usage, and how many entries are
// already past their expiry but not yet evicted.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Quota: s.quota}
	var used sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), SUM(size) FROM entries`,
	).Scan(&st.Entries, &used)
	if err != nil {
		return Stats{}, fmt.Errorf("reading cache stats: %w", err)
	}
	st.UsedBytes = used.Int64

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM entries WHERE expires_at <= ?`, time.Now().Unix(),
	).Scan(&st.Expired)
	if err != nil {
		return Stats{}, fmt.Errorf("counting expired entries: %w", err)
	}
	return st, nil
}

func (s *Store) delete(ctx context.Context, key string) {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, key); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("cache delete failed")
	}
}
