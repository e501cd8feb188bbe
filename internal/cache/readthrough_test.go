package cache_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/lessonhub-api/internal/cache"
	"github.com/phrazzld/lessonhub-api/internal/mocks"
	"github.com/phrazzld/lessonhub-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type courseView struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type recordingMetrics struct {
	mu            sync.Mutex
	lookups       map[string]int
	invalidations int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{lookups: map[string]int{}}
}

func (m *recordingMetrics) ObserveLookup(family, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups[family+"/"+outcome]++
}

func (m *recordingMetrics) ObserveInvalidationFailure(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidations++
}

type counter struct {
	calls int
	value courseView
	err   error
}

func (c *counter) compute(ctx context.Context) (courseView, error) {
	c.calls++
	return c.value, c.err
}

const detailKey = "user:course:details:5f1c7a52-1d7e-4f5c-9c59-0d6bde7ab001"

func newReadThrough(t *testing.T) (*cache.ReadThrough, *mocks.CacheStore, *recordingMetrics, *logger.TestLogBuffer) {
	t.Helper()
	store := mocks.NewCacheStore()
	metrics := newRecordingMetrics()
	log, buf := logger.NewTestLogger(t)
	return cache.NewReadThrough(store, metrics, log), store, metrics, buf
}

func TestWithCache_HitSkipsCompute(t *testing.T) {
	rt, store, metrics, _ := newReadThrough(t)
	c := &counter{value: courseView{Name: "Go", Count: 3}}

	first, err := cache.WithCache(context.Background(), rt, detailKey, time.Minute, c.compute)
	require.NoError(t, err)
	second, err := cache.WithCache(context.Background(), rt, detailKey, time.Minute, c.compute)
	require.NoError(t, err)

	assert.Equal(t, 1, c.calls, "compute must not run on a hit")
	assert.Equal(t, first, second)
	assert.True(t, store.Has(detailKey))
	assert.Equal(t, 1, metrics.lookups["user:course:details/miss"])
	assert.Equal(t, 1, metrics.lookups["user:course:details/hit"])
}

func TestWithCache_ComputeErrorIsNotCached(t *testing.T) {
	rt, store, _, _ := newReadThrough(t)
	boom := errors.New("db down")
	c := &counter{err: boom}

	_, err := cache.WithCache(context.Background(), rt, detailKey, time.Minute, c.compute)

	assert.ErrorIs(t, err, boom)
	assert.False(t, store.Has(detailKey))
	assert.Equal(t, 0, store.SetCalls)
}

func TestWithCache_LookupFailureDegradesToCompute(t *testing.T) {
	rt, store, metrics, buf := newReadThrough(t)
	store.GetErr = errors.New("connection refused")
	store.SetErr = errors.New("connection refused")
	c := &counter{value: courseView{Name: "Go"}}

	for i := 0; i < 3; i++ {
		v, err := cache.WithCache(context.Background(), rt, detailKey, time.Minute, c.compute)
		require.NoError(t, err, "cache outage must be invisible to the caller")
		assert.Equal(t, "Go", v.Name)
	}

	assert.Equal(t, 3, c.calls)
	assert.Equal(t, 6, metrics.lookups["user:course:details/error"])
	logger.AssertLogged(t, buf, slog.LevelWarn, "cache lookup failed, computing value")
	logger.AssertLogged(t, buf, slog.LevelWarn, "cache write failed, returning computed value")
}

func TestWithCache_UndecodableEntryIsRecomputed(t *testing.T) {
	rt, store, _, buf := newReadThrough(t)
	require.NoError(t, store.Set(context.Background(), detailKey, []byte("{not json"), time.Minute))
	c := &counter{value: courseView{Name: "fresh"}}

	v, err := cache.WithCache(context.Background(), rt, detailKey, time.Minute, c.compute)

	require.NoError(t, err)
	assert.Equal(t, "fresh", v.Name)
	assert.Equal(t, 1, c.calls)
	logger.AssertLogged(t, buf, slog.LevelWarn, "discarding undecodable cache entry")

	again, err := cache.WithCache(context.Background(), rt, detailKey, time.Minute, c.compute)
	require.NoError(t, err)
	assert.Equal(t, "fresh", again.Name)
	assert.Equal(t, 1, c.calls, "entry should have been overwritten")
}

func TestWithCache_ExpiresAtTTL(t *testing.T) {
	rt, store, _, _ := newReadThrough(t)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.Now = func() time.Time { return now }
	c := &counter{value: courseView{Name: "v1"}}

	_, err := cache.WithCache(context.Background(), rt, detailKey, 5*time.Minute, c.compute)
	require.NoError(t, err)

	now = now.Add(4 * time.Minute)
	_, err = cache.WithCache(context.Background(), rt, detailKey, 5*time.Minute, c.compute)
	require.NoError(t, err)
	assert.Equal(t, 1, c.calls)

	now = now.Add(time.Minute)
	c.value = courseView{Name: "v2"}
	v, err := cache.WithCache(context.Background(), rt, detailKey, 5*time.Minute, c.compute)
	require.NoError(t, err)
	assert.Equal(t, 2, c.calls)
	assert.Equal(t, "v2", v.Name)
}

func TestWithCache_BypassWithoutTTL(t *testing.T) {
	rt, store, _, _ := newReadThrough(t)
	c := &counter{value: courseView{Name: "Go"}}

	_, err := cache.WithCache(context.Background(), rt, detailKey, 0, c.compute)
	require.NoError(t, err)
	_, err = cache.WithCache(context.Background(), nil, detailKey, time.Minute, c.compute)
	require.NoError(t, err)

	assert.Equal(t, 2, c.calls)
	assert.Equal(t, 0, store.GetCalls)
}

func TestWithCache_ConcurrentMissesMayComputeIndependently(t *testing.T) {
	rt, _, _, _ := newReadThrough(t)
	var mu sync.Mutex
	calls := 0
	compute := func(ctx context.Context) (courseView, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return courseView{Name: "Go"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := cache.WithCache(context.Background(), rt, detailKey, time.Minute, compute)
			assert.NoError(t, err)
			assert.Equal(t, "Go", v.Name)
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, calls, 1)
	assert.LessOrEqual(t, calls, 8)
}
