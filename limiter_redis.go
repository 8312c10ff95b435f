package storyboard

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisLimitPrefix = "storyboard:ratelimit:"

// slidingWindow keeps one sorted set per key scored by hit time. Members
// older than the cutoff are dropped first; a new hit is only recorded when
// the window still has room.
//
// KEYS[1] key, ARGV[1] cutoff, ARGV[2] now, ARGV[3] max, ARGV[4] member,
// ARGV[5] window in milliseconds.
var slidingWindow = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[3]) then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[2], ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return 1
`)

// RedisLimiter is a sliding window limiter backed by Redis, so every
// instance of the app shares the same counts.
type RedisLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
	now    func() time.Time
}

// NewRedisLimiter connects to the store at storeURL (redis:// or rediss://).
// token is used as the password when the URL carries none.
func NewRedisLimiter(storeURL, token string, max int, window time.Duration) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(storeURL)
	if err != nil {
		return nil, fmt.Errorf("parse RATE_LIMIT_STORE_URL: %w", err)
	}
	if opts.Password == "" {
		opts.Password = token
	}
	return &RedisLimiter{
		client: redis.NewClient(opts),
		max:    max,
		window: window,
		now:    time.Now,
	}, nil
}

// Allow records a request for key and reports whether it fits the window.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := l.now()
	cutoff := now.Add(-l.window)
	res, err := slidingWindow.Run(ctx, l.client, []string{redisLimitPrefix + key},
		strconv.FormatInt(cutoff.UnixMicro(), 10),
		strconv.FormatInt(now.UnixMicro(), 10),
		l.max,
		uuid.NewString(),
		l.window.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return res == 1, nil
}

// Ping checks the store is reachable.
func (l *RedisLimiter) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}

func (l *RedisLimiter) setClock(now func() time.Time) { l.now = now }
