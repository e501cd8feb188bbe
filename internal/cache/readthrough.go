package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/lessonhub-api/internal/cachekey"
	"github.com/phrazzld/lessonhub-api/internal/platform/logger"
)

// ReadThrough fronts an expensive computation with a Store.
//
// There is no single-flight or in-flight marker: concurrent misses on the
// same key each run compute. Read-path computations are idempotent and free
// of side effects, so the duplicate work is accepted. Do not add stampede
// protection without a measured need.
type ReadThrough struct {
	store   Store
	metrics Metrics
	logger  *slog.Logger
}

// NewReadThrough wraps store. A nil metrics disables instrumentation and a
// nil logger falls back to slog.Default().
func NewReadThrough(store Store, metrics Metrics, logger *slog.Logger) *ReadThrough {
	if store == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("cache store cannot be nil")
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReadThrough{
		store:   store,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "read_through_cache")),
	}
}

// WithCache returns the value cached under key, or runs compute, stores its
// result for ttl, and returns it. compute runs at most once per call and is
// never run on a hit. Errors from compute are returned unchanged and nothing
// is cached for them; cache failures are logged and otherwise invisible.
// A nil rt or a non-positive ttl bypasses the cache.
func WithCache[T any](
	ctx context.Context,
	rt *ReadThrough,
	key string,
	ttl time.Duration,
	compute func(ctx context.Context) (T, error),
) (T, error) {
	if rt == nil || ttl <= 0 {
		return compute(ctx)
	}

	log := logger.FromContextOrDefault(ctx, rt.logger)
	family := cachekey.Family(key)

	if value, ok := lookup[T](ctx, rt, log, key, family); ok {
		rt.metrics.ObserveLookup(family, OutcomeHit)
		return value, nil
	}

	value, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	payload, err := json.Marshal(value)
	if err != nil {
		log.Warn("failed to encode value for cache",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return value, nil
	}

	if err := rt.store.Set(ctx, key, payload, ttl); err != nil {
		rt.metrics.ObserveLookup(family, OutcomeError)
		log.Warn("cache write failed, returning computed value",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}

	return value, nil
}

// lookup reports a hit only when the stored payload decodes cleanly.
func lookup[T any](
	ctx context.Context,
	rt *ReadThrough,
	log *slog.Logger,
	key, family string,
) (T, bool) {
	var value T

	payload, err := rt.store.Get(ctx, key)
	switch {
	case errors.Is(err, ErrMiss):
		rt.metrics.ObserveLookup(family, OutcomeMiss)
		return value, false
	case err != nil:
		rt.metrics.ObserveLookup(family, OutcomeError)
		log.Warn("cache lookup failed, computing value",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return value, false
	}

	if err := json.Unmarshal(payload, &value); err != nil {
		rt.metrics.ObserveLookup(family, OutcomeError)
		log.Warn("discarding undecodable cache entry",
			slog.String("key", key),
			slog.String("error", err.Error()))
		var zero T
		return zero, false
	}
	return value, true
}
