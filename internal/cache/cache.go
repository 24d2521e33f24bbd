// Package cache stores rendered pages in SQLite, keyed by a fingerprint of
// the render settings, the source file name and the source text, so
// unchanged files skip scanning and conversion on the next run.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/inful/mdfp"
	_ "modernc.org/sqlite"
)

// Entry is a cached rendering of one source file. A file without flagged
// comments is cached with an empty Page and zero Fragments.
type Entry struct {
	Source    string
	Page      string
	Comments  int
	Fragments int
	Updated   time.Time
}

// Cache is a render cache backed by SQLite. It is safe for concurrent use.
type Cache struct {
	db *sql.DB
	mu sync.RWMutex
}

// Key fingerprints the render settings and one source file. The page title
// is the file name, so name is part of the key as well as the text.
func Key(settings, name, source string) string {
	return mdfp.CalculateFingerprintFromParts(settings+"\nname: "+name, source)
}

// Open opens or creates the cache database at path. Use ":memory:" for a
// throwaway cache.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared between calls.
	db.SetMaxOpenConns(1)

	c := &Cache{db: db}
	if err := c.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return c, nil
}

// schemaVersion is stored in PRAGMA user_version. Entries written under an
// older version are dropped; the cache only ever costs a re-render.
const schemaVersion = 2

func (c *Cache) initialize() error {
	var version int
	if err := c.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		if _, err := c.db.Exec("DROP TABLE IF EXISTS pages"); err != nil {
			return fmt.Errorf("drop old pages: %w", err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS pages (
		key TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		page TEXT NOT NULL,
		comments INTEGER NOT NULL DEFAULT 0,
		fragments INTEGER NOT NULL,
		updated INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_pages_source ON pages(source);
	`
	if _, err := c.db.Exec(schema); err != nil {
		return err
	}
	_, err := c.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion))
	return err
}

// Get returns the entry stored under key.
func (c *Cache) Get(ctx context.Context, key string) (Entry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var (
		e       Entry
		updated int64
	)
	err := c.db.QueryRowContext(ctx,
		"SELECT source, page, comments, fragments, updated FROM pages WHERE key = ?", key,
	).Scan(&e.Source, &e.Page, &e.Comments, &e.Fragments, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("query page: %w", err)
	}
	e.Updated = time.Unix(updated, 0)
	return e, true, nil
}

// Put stores e under key. Older entries for the same source are removed.
func (c *Cache) Put(ctx context.Context, key string, e Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM pages WHERE source = ? AND key <> ?", e.Source, key); err != nil {
		return fmt.Errorf("delete stale pages: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO pages (key, source, page, comments, fragments, updated) VALUES (?, ?, ?, ?, ?, ?)",
		key, e.Source, e.Page, e.Comments, e.Fragments, time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("insert page: %w", err)
	}
	return tx.Commit()
}

// Len returns the number of cached entries.
func (c *Cache) Len(ctx context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var n int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pages").Scan(&n); err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}
