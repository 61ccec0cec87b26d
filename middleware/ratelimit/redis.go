package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindowScript runs the whole trim/count/record cycle server-side
// so concurrent callers across process instances observe one serialized
// sequence per key. Rejected attempts are not recorded.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
local count = redis.call('ZCARD', key)

if count >= max then
    local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
    local reset = now + window
    if oldest[2] then
        reset = tonumber(oldest[2]) + window
    end
    return {0, 0, reset}
end

redis.call('ZADD', key, now, member)
redis.call('PEXPIRE', key, window)
return {1, max - count - 1, now + window}
`)

// RedisStore is the distributed sliding-window implementation backing
// multi-instance deployments.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "rate_limit:",
	}
}

func (s *RedisStore) Allow(ctx context.Context, key string, window time.Duration, max int) (Decision, error) {
	now := time.Now().UnixMilli()

	result, err := slidingWindowScript.Run(ctx, s.client,
		[]string{s.prefix + key},
		now, window.Milliseconds(), max, entryMember(now),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit store error: %w", err)
	}
	if len(result) != 3 {
		return Decision{}, fmt.Errorf("rate limit store error: unexpected script reply of length %d", len(result))
	}

	return Decision{
		Allowed:   result[0] == 1,
		Remaining: int(result[1]),
		ResetAt:   time.UnixMilli(result[2]),
	}, nil
}
