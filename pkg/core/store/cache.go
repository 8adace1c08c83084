// Package store caches extracted document text by content fingerprint so
// that re-running an analysis on the same upload skips OCR.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidFingerprint is returned for anything that is not a sha256 hex
// digest as produced by Fingerprint.
var ErrInvalidFingerprint = errors.New("invalid document fingerprint")

// CachedText is the cached extraction of one document.
type CachedText struct {
	Key         string    `json:"key"`
	Fingerprint string    `json:"fingerprint"`
	Strategy    string    `json:"strategy"`
	Text        string    `json:"text"`
	PageOffsets []int     `json:"page_offsets"`
	CachedAt    time.Time `json:"cached_at"`
}

// TextCache stores extracted text. Get reports a miss as (nil, nil).
type TextCache interface {
	Get(ctx context.Context, key string) (*CachedText, error)
	Put(ctx context.Context, entry *CachedText) error
	// Invalidate drops every entry of one document fingerprint.
	Invalidate(ctx context.Context, fingerprint string) error
	Clear(ctx context.Context) error
}

// Fingerprint is the sha256 hex digest of the uploaded bytes.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ValidFingerprint reports whether fp is 64 lowercase hex characters. Only
// such values may reach backend patterns (file globs, SCAN MATCH).
func ValidFingerprint(fp string) bool {
	if len(fp) != sha256.Size*2 {
		return false
	}
	for i := 0; i < len(fp); i++ {
		c := fp[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func checkFingerprint(fp string) error {
	if !ValidFingerprint(fp) {
		return fmt.Errorf("%w: %q", ErrInvalidFingerprint, fp)
	}
	return nil
}

// Key builds the cache key. Changing the extraction strategy or the
// extractor version yields a different key, so stale text is never served.
func Key(fingerprint, strategy, version string) string {
	return fmt.Sprintf("%s:%s:%s", fingerprint, strategy, version)
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (*CachedText, error) { return nil, nil }
func (NopCache) Put(context.Context, *CachedText) error           { return nil }
func (NopCache) Invalidate(context.Context, string) error         { return nil }
func (NopCache) Clear(context.Context) error                      { return nil }
