// Package store is the key-value cache backend used for memoized scores and
// client interests. Values are JSON-encoded strings at rest.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrKeyNotSet is returned by the mandatory-read path when the key is
	// absent. It is never suppressed.
	ErrKeyNotSet = errors.New("key is not set")
)

// Store is a shared long-lived backend, safe for concurrent use.
//
// CacheGet and CacheSet surface connectivity failures to the caller; whether
// to suppress them is the caller's choice. Get treats an absent key as a hard
// ErrKeyNotSet error.
//
//go:generate mockgen -destination=mocks/store_mock.go -package=mocks scoringapi/internal/store Store
type Store interface {
	// CacheGet returns the decoded value for key, or (nil, nil) when the key
	// is absent.
	CacheGet(ctx context.Context, key string) (any, error)

	// CacheSet stores value under key with the given TTL.
	CacheSet(ctx context.Context, key string, value any, ttl time.Duration) error

	// Get is the mandatory read: an absent key is ErrKeyNotSet.
	Get(ctx context.Context, key string) (any, error)
}
