package store

import (
	"context"
	"fmt"
	"time"
)

// Backends accepted by Open.
const (
	BackendNone     = "none"
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Options selects and configures a cache backend.
type Options struct {
	Backend     string
	Dir         string        // file
	DatabaseURL string        // postgres
	RedisURL    string        // redis
	TTL         time.Duration // redis
}

// Open builds the configured cache. Postgres goes through the shared pool.
func Open(ctx context.Context, opts Options) (TextCache, error) {
	switch opts.Backend {
	case "", BackendNone:
		return NopCache{}, nil
	case BackendFile:
		return NewFileCache(opts.Dir)
	case BackendPostgres:
		if err := InitDB(ctx, opts.DatabaseURL); err != nil {
			return nil, err
		}
		c, err := NewPGCache(nil)
		if err != nil {
			return nil, err
		}
		if err := c.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return c, nil
	case BackendRedis:
		return NewRedisCache(ctx, opts.RedisURL, opts.TTL)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}
