package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/countaustin1990/responsive-travel-website/config"
	"github.com/redis/go-redis/v9"
)

// hitScript increments a fixed-window counter, starting the window on the
// first hit, and returns {count, pttl}.
var hitScript = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
return { current, ttl }
`)

// RedisCache holds the shared counters behind the per-client rate limits.
type RedisCache struct {
	client redis.UniversalClient
}

func NewRedisCache(cfg config.RedisConfig) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
	}
}

func NewRedisCacheWithClient(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Hit counts one request against key in a fixed window. It returns the
// count so far and the time left until the window resets.
func (c *RedisCache) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	res, err := hitScript.Run(ctx, c.client, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("unexpected rate limit script result %v", res)
	}

	resetIn := time.Duration(res[1]) * time.Millisecond
	if resetIn < 0 {
		resetIn = window
	}
	return res[0], resetIn, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func RateKey(prefix, scope, clientIP string) string {
	return prefix + ":" + scope + ":ip:" + clientIP
}
