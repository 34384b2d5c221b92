package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Zalthoryn/DatingBot/internal/config"
)

// ErrMiss is returned by typed getters on a cache miss.
var ErrMiss = errors.New("cache miss")

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

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return val, err
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// KeyForTopProfiles is the advisory read-through cache of the top-rated
// candidate pool consulted by the selector before the authoritative query.
func (c *RedisCache) KeyForTopProfiles() string {
	return "profiles:top"
}

// KeyForSearchCooldown marks a user who recently requested a search.
func (c *RedisCache) KeyForSearchCooldown(telegramID int64) string {
	return fmt.Sprintf("search:%d", telegramID)
}

// SetSearchCooldown records the cooldown marker with the given TTL.
func (c *RedisCache) SetSearchCooldown(ctx context.Context, telegramID int64, ttl time.Duration) error {
	return c.Set(ctx, c.KeyForSearchCooldown(telegramID), "1", ttl)
}

// OnSearchCooldown reports whether the user searched within the cooldown window.
func (c *RedisCache) OnSearchCooldown(ctx context.Context, telegramID int64) (bool, error) {
	_, err := c.Get(ctx, c.KeyForSearchCooldown(telegramID))
	if errors.Is(err, ErrMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
