package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lessonhub-api/internal/ratelimit"
	goredis "github.com/redis/go-redis/v9"
)

// admitScript trims the window, then records the attempt only if the
// ceiling has not been reached. Scores are unix milliseconds supplied by
// the caller.
//
// KEYS[1] window key
// ARGV[1] now, ARGV[2] window, ARGV[3] limit, ARGV[4] member
var admitScript = goredis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)

if count < limit then
	redis.call('ZADD', key, now, ARGV[4])
	redis.call('PEXPIRE', key, window)
	return {1, count + 1, 0}
end

local retry = window
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if oldest[2] then
	retry = tonumber(oldest[2]) + window - now
end
return {0, count, retry}
`)

// WindowStore implements ratelimit.WindowStore with one sorted set per key.
type WindowStore struct {
	client goredis.UniversalClient
}

// NewWindowStore creates a window store over client.
func NewWindowStore(client goredis.UniversalClient) *WindowStore {
	if client == nil {
		// ALLOW-PANIC: constructor precondition
		panic("redis client cannot be nil")
	}
	return &WindowStore{client: client}
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
	nowMs := now.UnixMilli()
	member := fmt.Sprintf("%d-%s", nowMs, uuid.NewString())

	vals, err := admitScript.Run(ctx, s.client, []string{key},
		nowMs, window.Milliseconds(), limit, member).Int64Slice()
	if err != nil {
		return ratelimit.WindowResult{}, fmt.Errorf("redis admit: %w", err)
	}
	if len(vals) != 3 {
		return ratelimit.WindowResult{}, fmt.Errorf("redis admit: unexpected reply length %d", len(vals))
	}

	res := ratelimit.WindowResult{
		Allowed: vals[0] == 1,
		Count:   int(vals[1]),
	}
	if !res.Allowed {
		res.RetryAfter = max(time.Duration(vals[2])*time.Millisecond, time.Millisecond)
	}
	return res, nil
}
