// Package cache stores computed layouts and exports between runs.
//
// Entries are opaque byte slices addressed by string keys produced by a
// [Keyer]. Three backends implement [Cache]:
//
//   - [FileCache]: one JSON file per entry, for the CLI.
//   - [RedisCache]: shared cache for server deployments.
//   - [NullCache]: caching disabled.
//
// A cache failure is never fatal to a caller: the pipeline treats errors
// as misses and recomputes.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry TTL.
type Cache interface {
	// Get returns the entry for key. A missing or expired entry is a miss,
	// not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Entry lifetimes.
const (
	// TTLTree is how long a parsed source tree is kept.
	TTLTree = 7 * 24 * time.Hour

	// TTLLayout is how long a computed layout is kept.
	TTLLayout = 24 * time.Hour

	// TTLExport is how long a serialized export is kept.
	TTLExport = 24 * time.Hour
)
