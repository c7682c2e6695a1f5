package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"quizapp/internal/config"
)

// NewRedisClient creates and returns a new Redis client instance.
// It pings the server to ensure connectivity.
func NewRedisClient(redisCfg config.RedisConfig) (*redis.Client, error) {
	var opt *redis.Options
	if redisCfg.URL != "" {
		parsed, err := redis.ParseURL(redisCfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opt = parsed
	} else {
		if redisCfg.Address == "" {
			return nil, fmt.Errorf("redis configuration is missing or address is empty")
		}
		opt = &redis.Options{
			Addr:     redisCfg.Address,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		}
	}

	client := redis.NewClient(opt)

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opt.Addr, err)
	}

	return client, nil
}
