package domain

import (
	"context"
	"time"
)

// TokenStoreError represents an error originating from the token store.
type TokenStoreError string

func (e TokenStoreError) Error() string {
	return string(e)
}

// ErrTokenNotFound is returned by Get when the key has no record, whether
// it never existed or its TTL elapsed.
const ErrTokenNotFound = TokenStoreError("token store: key not found")

// Entry is a key/value pair with a TTL, used for batched writes.
type Entry struct {
	Key   string
	Value string
	TTL   time.Duration
}

// SetSwap describes a member swap on a set key, applied together with a
// Rotate call. Remove or Add may be empty to skip that half.
type SetSwap struct {
	Key    string
	Remove string
	Add    string
	TTL    time.Duration
}

// TokenStore is the key-value store backing token revocation state: refresh
// records, family markers, the access-token blacklist and refresh rate-limit
// counters. It is the single source of truth for revocation.
type TokenStore interface {
	// Put stores value under key with the given TTL.
	Put(ctx context.Context, key, value string, ttl time.Duration) error

	// Get returns the value stored under key, or ErrTokenNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Increment atomically increments the integer counter at key and
	// returns the new value. A missing key counts from zero.
	Increment(ctx context.Context, key string) (int64, error)

	// Expire sets a TTL on an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Keys returns all keys matching the glob-style pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// AddToSet adds member to the set at key and refreshes its TTL.
	AddToSet(ctx context.Context, key, member string, ttl time.Duration) error

	// RemoveFromSet removes member from the set at key.
	RemoveFromSet(ctx context.Context, key, member string) error

	// SetMembers returns all members of the set at key.
	SetMembers(ctx context.Context, key string) ([]string, error)

	// Rotate applies the deletes, puts and the optional set swap as one
	// atomic unit. Either everything is applied or nothing is, so a failed
	// rotation leaves the old refresh record intact.
	Rotate(ctx context.Context, del []string, put []Entry, swap *SetSwap) error

	// Ping checks connectivity to the backing store.
	Ping(ctx context.Context) error
}

// Token store key families. The refresh and family records of one token
// always live and die together.
const (
	refreshKeyPrefix   = "refresh:"
	familyKeyPrefix    = "family:"
	blacklistKeyPrefix = "blacklist:"
)

// RefreshTokenKey is the record mapping a refresh token to its subject.
func RefreshTokenKey(token string) string {
	return refreshKeyPrefix + token
}

// FamilyKey is the record mapping a refresh token to its family id.
func FamilyKey(token string) string {
	return familyKeyPrefix + token
}

// BlacklistKey marks a revoked access token for its remaining lifetime.
func BlacklistKey(token string) string {
	return blacklistKeyPrefix + token
}

// RefreshRateLimitKey is the per-user sliding counter for refresh calls.
func RefreshRateLimitKey(username string) string {
	return "rateLimit:refresh:" + username
}

// UserRefreshIndexKey is the set of live refresh tokens of a user. It is a
// secondary index maintained alongside the refresh records so subject-wide
// revocation does not need a keyspace scan.
func UserRefreshIndexKey(username string) string {
	return "user_refresh_tokens:" + username
}

// RefreshKeyPattern matches every refresh record in the store.
const RefreshKeyPattern = refreshKeyPrefix + "*"

// TokenFromRefreshKey strips the refresh prefix from a store key.
func TokenFromRefreshKey(key string) string {
	if len(key) > len(refreshKeyPrefix) && key[:len(refreshKeyPrefix)] == refreshKeyPrefix {
		return key[len(refreshKeyPrefix):]
	}
	return key
}
