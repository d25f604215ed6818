// Package cache provides key-value backends for session snapshot
// storage.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss indicates that the key was not found in the cache.
var ErrCacheMiss = errors.New("gatehouse: cache miss")

// Cache stores serialized session snapshots and the per-subject index
// of live session IDs. Values are opaque bytes; set operations back
// the subject index so destroying all of a subject's sessions never
// scans the keyspace.
type Cache interface {
	// Get retrieves a value. Returns ErrCacheMiss if the key is not
	// found or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL. A TTL of 0 means the
	// entry never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// AddToSet adds a member to the set at key.
	AddToSet(ctx context.Context, key, member string) error

	// RemoveFromSet removes a member from the set at key.
	RemoveFromSet(ctx context.Context, key, member string) error

	// SetMembers returns the members of the set at key. A missing set
	// yields an empty slice.
	SetMembers(ctx context.Context, key string) ([]string, error)

	// DeleteSet removes the set at key.
	DeleteSet(ctx context.Context, key string) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
