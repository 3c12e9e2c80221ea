// Package cache stores parsed compiler output between runs.
//
// Parsing every .su and cgraph file of a large firmware build is the slowest
// part of an analysis, and most files do not change between builds. The
// pipeline caches each file's parse under a key derived from the SHA-256 of
// its contents, so an unchanged file is never parsed twice.
//
// # Backends
//
//   - [NullCache]: caching disabled
//   - [FileCache]: local directory, one JSON envelope per entry
//   - [RedisCache]: shared between CI runners
//
// # Keys
//
// A [Keyer] builds keys. [DefaultKeyer] includes [FormatVersion] so a change
// of the cached representation never reads stale entries. [Prefixed]
// prefixes keys so several projects can share one Redis database.
//
// Errors from a backend are never fatal to an analysis; callers treat them
// as misses.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key-value store with expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default TTLs for cached entries.
const (
	// TTLScan applies to per-file parse results. Entries are content
	// addressed, so the TTL only bounds disk or memory growth.
	TTLScan = 30 * 24 * time.Hour
)
