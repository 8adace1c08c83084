package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGCache stores entries in the document_text_cache table.
type PGCache struct {
	pool *pgxpool.Pool
}

var _ TextCache = (*PGCache)(nil)

const createTextCacheTable = `
CREATE TABLE IF NOT EXISTS document_text_cache (
	cache_key   TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL,
	strategy    TEXT NOT NULL,
	data        JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_document_text_cache_fingerprint ON document_text_cache (fingerprint);
`

// NewPGCache wraps a pool. A nil pool falls back to the package pool set up
// by InitDB.
func NewPGCache(p *pgxpool.Pool) (*PGCache, error) {
	if p == nil {
		p = GetPool()
	}
	if p == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}
	return &PGCache{pool: p}, nil
}

// EnsureSchema creates the cache table when missing.
func (c *PGCache) EnsureSchema(ctx context.Context) error {
	if _, err := c.pool.Exec(ctx, createTextCacheTable); err != nil {
		return fmt.Errorf("failed to create document_text_cache: %w", err)
	}
	return nil
}

// Get implements TextCache.
func (c *PGCache) Get(ctx context.Context, key string) (*CachedText, error) {
	query := `SELECT data FROM document_text_cache WHERE cache_key = $1 LIMIT 1`
	var dataJSON []byte
	err := c.pool.QueryRow(ctx, query, key).Scan(&dataJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query db cache: %w", err)
	}
	var entry CachedText
	if err := json.Unmarshal(dataJSON, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal db cached data: %w", err)
	}
	return &entry, nil
}

// Put implements TextCache.
func (c *PGCache) Put(ctx context.Context, entry *CachedText) error {
	if entry.CachedAt.IsZero() {
		entry.CachedAt = time.Now()
	}
	dataJSON, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	query := `
		INSERT INTO document_text_cache (cache_key, fingerprint, strategy, data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cache_key)
		DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = NOW()
	`
	if _, err := c.pool.Exec(ctx, query, entry.Key, entry.Fingerprint, entry.Strategy, dataJSON); err != nil {
		return fmt.Errorf("failed to save to db cache: %w", err)
	}
	return nil
}

// Invalidate implements TextCache.
func (c *PGCache) Invalidate(ctx context.Context, fingerprint string) error {
	if err := checkFingerprint(fingerprint); err != nil {
		return err
	}
	if _, err := c.pool.Exec(ctx, `DELETE FROM document_text_cache WHERE fingerprint = $1`, fingerprint); err != nil {
		return fmt.Errorf("failed to invalidate db cache: %w", err)
	}
	return nil
}

// Clear implements TextCache.
func (c *PGCache) Clear(ctx context.Context) error {
	if _, err := c.pool.Exec(ctx, `DELETE FROM document_text_cache`); err != nil {
		return fmt.Errorf("failed to clear db cache: %w", err)
	}
	return nil
}
