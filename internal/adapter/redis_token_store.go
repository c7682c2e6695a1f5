package adapter

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"quizapp/internal/domain"
)

// RedisTokenStore implements the domain.TokenStore interface on a Redis
// client. It holds refresh records, family markers, the access-token
// blacklist and refresh rate-limit counters.
type RedisTokenStore struct {
	client *redis.Client
}

// NewRedisTokenStore creates a new instance of RedisTokenStore.
// It expects a connected *redis.Client.
func NewRedisTokenStore(client *redis.Client) domain.TokenStore {
	return &RedisTokenStore{client: client}
}

func (r *RedisTokenStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Get translates redis.Nil to domain.ErrTokenNotFound.
func (r *RedisTokenStore) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", domain.ErrTokenNotFound
		}
		return "", err
	}
	return val, nil
}

func (r *RedisTokenStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisTokenStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisTokenStore) Increment(ctx context.Context, key string) (int64, error) {
	return r.client.Incr(ctx, key).Result()
}

func (r *RedisTokenStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return r.client.Expire(ctx, key, ttl).Err()
}

func (r *RedisTokenStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	return r.client.Keys(ctx, pattern).Result()
}

func (r *RedisTokenStore) AddToSet(ctx context.Context, key, member string, ttl time.Duration) error {
	if err := r.client.SAdd(ctx, key, member).Err(); err != nil {
		return err
	}
	return r.client.Expire(ctx, key, ttl).Err()
}

func (r *RedisTokenStore) RemoveFromSet(ctx context.Context, key, member string) error {
	return r.client.SRem(ctx, key, member).Err()
}

func (r *RedisTokenStore) SetMembers(ctx context.Context, key string) ([]string, error) {
	members, err := r.client.SMembers(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	return members, nil
}

// Rotate queues every delete, put and the optional set swap on one
// MULTI/EXEC pipeline. A failed EXEC leaves all old records untouched.
func (r *RedisTokenStore) Rotate(ctx context.Context, del []string, put []domain.Entry, swap *domain.SetSwap) error {
	pipe := r.client.TxPipeline()
	if len(del) > 0 {
		pipe.Del(ctx, del...)
	}
	for _, e := range put {
		pipe.Set(ctx, e.Key, e.Value, e.TTL)
	}
	if swap != nil {
		if swap.Remove != "" {
			pipe.SRem(ctx, swap.Key, swap.Remove)
		}
		if swap.Add != "" {
			pipe.SAdd(ctx, swap.Key, swap.Add)
			pipe.Expire(ctx, swap.Key, swap.TTL)
		}
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisTokenStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
