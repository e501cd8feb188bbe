package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Store.Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is a shared key-value cache service.
type Store interface {
	// Get returns the value stored under key, or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the given keys. Deleting an absent key is not an error.
	Delete(ctx context.Context, keys ...string) error

	// DeleteByPrefix removes every key starting with prefix.
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// Lookup outcomes reported to Metrics.
const (
	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
	OutcomeError = "error"
)

// Metrics observes cache behaviour. Implementations must be safe for
// concurrent use.
type Metrics interface {
	ObserveLookup(family, outcome string)
	ObserveInvalidationFailure(operation string)
}

type nopMetrics struct{}

func (nopMetrics) ObserveLookup(string, string)      {}
func (nopMetrics) ObserveInvalidationFailure(string) {}
