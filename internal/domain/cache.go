package domain

import (
	"context"
	"time"
)

// CacheError represents an error originating from the cache.
type CacheError string

func (e CacheError) Error() string {
	return string(e)
}

// ErrCacheMiss is returned when a key is not found in the cache.
const ErrCacheMiss = CacheError("cache: key not found")

// Cache defines the port for read-through caching (leaderboards). A failed
// cache never fails the request; callers fall back to the source of truth.
type Cache interface {
	// Get retrieves an item, returning ErrCacheMiss if the key is absent.
	Get(ctx context.Context, key string) (string, error)

	// Set stores an item with the given expiration.
	Set(ctx context.Context, key string, value string, expiration time.Duration) error

	// Delete removes an item. Absent keys are not an error.
	Delete(ctx context.Context, key string) error
}
