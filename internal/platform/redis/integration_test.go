//go:build integration

package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_WindowStoreAgainstServer(t *testing.T) {
	url := os.Getenv("LEARNHUB_TEST_REDIS_URL")
	if url == "" {
		t.Skip("LEARNHUB_TEST_REDIS_URL not set")
	}
	client, err := NewClient(context.Background(), url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	s := NewWindowStore(client)
	key := "ratelimit:integration:" + uuid.NewString()
	t.Cleanup(func() { client.Del(context.Background(), key) })

	now := time.Now()
	for i := 0; i < 3; i++ {
		res, err := s.Admit(context.Background(), key, 3, time.Minute, now)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
	res, err := s.Admit(context.Background(), key, 3, time.Minute, now)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.InDelta(t, time.Minute, res.RetryAfter, float64(time.Second))
}

func TestIntegration_CacheStorePrefixDelete(t *testing.T) {
	url := os.Getenv("LEARNHUB_TEST_REDIS_URL")
	if url == "" {
		t.Skip("LEARNHUB_TEST_REDIS_URL not set")
	}
	client, err := NewClient(context.Background(), url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	s := NewCacheStore(client, nil)
	ctx := context.Background()
	ns := "integration:" + uuid.NewString()

	require.NoError(t, s.Set(ctx, ns+":page=1", []byte("1"), time.Minute))
	require.NoError(t, s.Set(ctx, ns+":page=2", []byte("2"), time.Minute))
	require.NoError(t, s.DeleteByPrefix(ctx, ns+":"))

	n, err := client.Exists(ctx, ns+":page=1", ns+":page=2").Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}
