package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/lessonhub-api/internal/cache"
	goredis "github.com/redis/go-redis/v9"
)

// scanBatch is both the SCAN COUNT hint and the UNLINK batch size.
const scanBatch = 100

// CacheStore implements cache.Store.
type CacheStore struct {
	client goredis.UniversalClient
	logger *slog.Logger
}

// NewCacheStore creates a cache store over client.
func NewCacheStore(client goredis.UniversalClient, logger *slog.Logger) *CacheStore {
	if client == nil {
		// ALLOW-PANIC: constructor precondition
		panic("redis client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheStore{
		client: client,
		logger: logger.With(slog.String("component", "redis_cache")),
	}
}

var _ cache.Store = (*CacheStore)(nil)

// Get implements cache.Store.
func (s *CacheStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, cache.ErrMiss
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return val, nil
}

// Set implements cache.Store.
func (s *CacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete implements cache.Store. Keys are unlinked so large values are
// reclaimed off the main thread.
func (s *CacheStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Unlink(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis unlink: %w", err)
	}
	return nil
}

// DeleteByPrefix implements cache.Store. It walks the keyspace with SCAN,
// so keys written while the walk is in progress may survive.
func (s *CacheStore) DeleteByPrefix(ctx context.Context, prefix string) error {
	iter := s.client.Scan(ctx, 0, escapeGlob(prefix)+"*", scanBatch).Iterator()

	batch := make([]string, 0, scanBatch)
	deleted := 0
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := s.Delete(ctx, batch...); err != nil {
				return err
			}
			deleted += len(batch)
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if err := s.Delete(ctx, batch...); err != nil {
		return err
	}
	deleted += len(batch)

	s.logger.Debug("deleted keys by prefix",
		slog.String("prefix", prefix),
		slog.Int("count", deleted))
	return nil
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
