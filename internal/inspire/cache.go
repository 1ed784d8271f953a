package inspire

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pcox/bibsync/internal/identifier"
)

// Cache stores fetched BibTeX payloads in a local SQLite database so
// repeated runs over the same document do not re-hit the registry.
type Cache struct {
	db *sql.DB
}

// OpenCache opens or creates the cache database at the given path.
func OpenCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	schema := `
		CREATE TABLE IF NOT EXISTS fetches (
			token      TEXT PRIMARY KEY,
			scheme     TEXT NOT NULL,
			bibtex     TEXT NOT NULL,
			fetched_at TEXT NOT NULL
		);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached BibTeX for a token, if present.
func (c *Cache) Get(token string) (string, bool, error) {
	var bibtex string
	err := c.db.QueryRow(`SELECT bibtex FROM fetches WHERE token = ?`, token).Scan(&bibtex)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying cache: %w", err)
	}
	return bibtex, true, nil
}

// Put stores a fetched BibTeX payload.
func (c *Cache) Put(token string, scheme identifier.Scheme, bibtex string) error {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO fetches (token, scheme, bibtex, fetched_at) VALUES (?, ?, ?, ?)`,
		token, scheme.String(), bibtex, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// CachingFetcher wraps a Fetcher with a read-through cache. Misses are
// not cached: a token absent from the registry today may exist tomorrow.
type CachingFetcher struct {
	fetch Fetcher
	cache *Cache
}

// NewCachingFetcher wraps a fetcher with the given cache.
func NewCachingFetcher(fetch Fetcher, cache *Cache) *CachingFetcher {
	return &CachingFetcher{fetch: fetch, cache: cache}
}

// FetchBibTeX consults the cache before the underlying fetcher.
func (f *CachingFetcher) FetchBibTeX(ctx context.Context, token string, scheme identifier.Scheme) (string, error) {
	if bibtex, ok, err := f.cache.Get(token); err == nil && ok {
		return bibtex, nil
	}

	bibtex, err := f.fetch.FetchBibTeX(ctx, token, scheme)
	if err != nil {
		return "", err
	}

	// Cache write failures don't fail the fetch.
	_ = f.cache.Put(token, scheme, bibtex)

	return bibtex, nil
}
