package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/phrazzld/lessonhub-api/internal/ratelimit"
)

// WindowStore is an in-memory ratelimit.WindowStore.
type WindowStore struct {
	mu      sync.Mutex
	windows map[string][]time.Time

	// Err, when set, is returned by every Admit call.
	Err error

	Calls int
}

// NewWindowStore returns an empty store.
func NewWindowStore() *WindowStore {
	return &WindowStore{windows: map[string][]time.Time{}}
}

var _ ratelimit.WindowStore = (*WindowStore)(nil)

// Admit implements ratelimit.WindowStore.
func (s *WindowStore) Admit(
	ctx context.Context,
	key string,
	limit int,
	window time.Duration,
	now time.Time,
) (ratelimit.WindowResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if s.Err != nil {
		return ratelimit.WindowResult{}, s.Err
	}

	cutoff := now.Add(-window)
	kept := s.windows[key][:0]
	for _, ts := range s.windows[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) < limit {
		kept = append(kept, now)
		s.windows[key] = kept
		return ratelimit.WindowResult{Allowed: true, Count: len(kept)}, nil
	}

	s.windows[key] = kept
	return ratelimit.WindowResult{
		Allowed:    false,
		Count:      len(kept),
		RetryAfter: kept[0].Add(window).Sub(now),
	}, nil
}

// Count returns the number of recorded entries for key.
func (s *WindowStore) Count(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows[key])
}
