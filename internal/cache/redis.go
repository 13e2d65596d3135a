package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/harmonia-app/matchcore/internal/config"
)

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

// NewRedisCacheFromClient wraps an existing client (miniredis in tests).
func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{Client: client}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

// KeyForSwipeCount generates the Redis key for a user's swipe count on a
// given UTC day (YYYY-MM-DD).
func (c *RedisCache) KeyForSwipeCount(userID uint64, day string) string {
	return fmt.Sprintf("swipes:count:%d:%s", userID, day)
}

// IncrSwipeCount bumps the fast-path swipe counter and returns the new
// value. The key expires at ttl past now so stale days clean themselves up.
func (c *RedisCache) IncrSwipeCount(ctx context.Context, userID uint64, day string, ttl time.Duration) (int64, error) {
	key := c.KeyForSwipeCount(userID, day)
	n, err := c.Client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	_ = c.Client.Expire(ctx, key, ttl).Err()
	return n, nil
}

// DecrSwipeCount walks the fast-path counter back by one, used when the
// authoritative DB increment is refused at the cap.
func (c *RedisCache) DecrSwipeCount(ctx context.Context, userID uint64, day string) error {
	return c.Client.Decr(ctx, c.KeyForSwipeCount(userID, day)).Err()
}

// GetSwipeCount reads the fast-path counter; a miss reads as zero.
func (c *RedisCache) GetSwipeCount(ctx context.Context, userID uint64, day string) (int64, error) {
	val, err := c.Client.Get(ctx, c.KeyForSwipeCount(userID, day)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}
