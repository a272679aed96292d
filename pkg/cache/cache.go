// Package cache provides the key-value cache behind the headless render
// pipeline.
//
// Settling a map is the expensive step of rendering an outline: the
// relaxation loop runs hundreds of ticks even on a virtual clock. The
// pipeline therefore caches two things:
//
//   - layouts, keyed by the outline hash and the simulation parameters
//   - artifacts (SVG, PNG, DOT, JSON), keyed by the layout hash and the
//     render options
//
// # Backends
//
// [FileCache] stores entries as JSON files under a directory and is what the
// CLI uses. [RedisCache] shares entries between server instances.
// [NullCache] disables caching.
//
// # Keys
//
// A [Keyer] builds keys. [DefaultKeyer] hashes the option structs so that any
// change to a parameter produces a different key; [ScopedKeyer] prefixes
// keys for isolation between tenants or test runs.
package cache

import (
	"context"
	"time"
)

// Default TTLs for cached entries.
const (
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key-value store with expiry.
//
// Get reports a miss as (nil, false, nil); errors are reserved for backend
// failures.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// NullCache disables caching: every Get misses and writes are dropped.
type NullCache struct{}

func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error    { return nil }
func (NullCache) Delete(context.Context, string) error                        { return nil }
func (NullCache) Close() error                                                { return nil }
