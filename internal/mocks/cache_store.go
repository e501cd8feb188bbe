package mocks

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/phrazzld/lessonhub-api/internal/cache"
)

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// CacheStore is an in-memory cache.Store.
type CacheStore struct {
	mu      sync.Mutex
	entries map[string]cacheEntry

	// Now is the clock used for expiry.
	Now func() time.Time

	// Injected failures
	GetErr    error
	SetErr    error
	DeleteErr error

	GetCalls    int
	SetCalls    int
	DeleteCalls int
}

// NewCacheStore returns an empty store using time.Now.
func NewCacheStore() *CacheStore {
	return &CacheStore{entries: map[string]cacheEntry{}, Now: time.Now}
}

var _ cache.Store = (*CacheStore)(nil)

// Get implements cache.Store.
func (s *CacheStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GetCalls++
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	e, ok := s.entries[key]
	if !ok || !s.Now().Before(e.expiresAt) {
		delete(s.entries, key)
		return nil, cache.ErrMiss
	}
	return append([]byte(nil), e.value...), nil
}

// Set implements cache.Store.
func (s *CacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SetCalls++
	if s.SetErr != nil {
		return s.SetErr
	}
	s.entries[key] = cacheEntry{value: append([]byte(nil), value...), expiresAt: s.Now().Add(ttl)}
	return nil
}

// Delete implements cache.Store.
func (s *CacheStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DeleteCalls++
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	for _, k := range keys {
		delete(s.entries, k)
	}
	return nil
}

// DeleteByPrefix implements cache.Store.
func (s *CacheStore) DeleteByPrefix(ctx context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DeleteCalls++
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			delete(s.entries, k)
		}
	}
	return nil
}

// Has reports whether key holds an unexpired entry.
func (s *CacheStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return ok && s.Now().Before(e.expiresAt)
}

// Keys returns every stored key, expired or not.
func (s *CacheStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys
}
