package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileCache keeps one JSON file per key in a directory.
type FileCache struct {
	dir string
}

var _ TextCache = (*FileCache)(nil)

// NewFileCache creates the cache directory. An empty dir defaults to
// .cache/equiintel/text.
func NewFileCache(dir string) (*FileCache, error) {
	if dir == "" {
		dir = filepath.Join(".cache", "equiintel", "text")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return &FileCache{dir: dir}, nil
}

func (c *FileCache) path(key string) string {
	safe := strings.NewReplacer(":", "_", "/", "_", "\\", "_").Replace(key)
	return filepath.Join(c.dir, safe+".json")
}

// Get implements TextCache.
func (c *FileCache) Get(_ context.Context, key string) (*CachedText, error) {
	b, err := os.ReadFile(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file cache: %w", err)
	}
	var entry CachedText
	if err := json.Unmarshal(b, &entry); err != nil {
		// a corrupt entry is a miss; the next Put overwrites it
		return nil, nil
	}
	return &entry, nil
}

// Put implements TextCache.
func (c *FileCache) Put(_ context.Context, entry *CachedText) error {
	if entry.CachedAt.IsZero() {
		entry.CachedAt = time.Now()
	}
	b, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := os.WriteFile(c.path(entry.Key), b, 0644); err != nil {
		return fmt.Errorf("failed to save to file cache: %w", err)
	}
	return nil
}

// Invalidate implements TextCache.
func (c *FileCache) Invalidate(_ context.Context, fingerprint string) error {
	if err := checkFingerprint(fingerprint); err != nil {
		return err
	}
	matches, err := filepath.Glob(filepath.Join(c.dir, fingerprint+"_*.json"))
	if err != nil {
		return err
	}
	return removeAll(matches)
}

// Clear implements TextCache.
func (c *FileCache) Clear(_ context.Context) error {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return err
	}
	return removeAll(matches)
}

func removeAll(paths []string) error {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove cache entry: %w", err)
		}
	}
	return nil
}
