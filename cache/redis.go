package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Compile-time interface check.
var _ Cache = (*Redis)(nil)

// Redis is a Redis-backed cache. Sessions stored here survive process
// restarts and are shared between replicas.
type Redis struct {
	client redis.UniversalClient
}

// NewRedis creates a Redis cache from a connection URL, for example
// "redis://localhost:6379/0".
func NewRedis(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("gatehouse: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("gatehouse: redis connect: %w", err)
	}
	return &Redis{client: client}, nil
}

// NewRedisWithClient wraps an existing Redis client.
func NewRedisWithClient(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

// Get retrieves a value, mapping redis.Nil to ErrCacheMiss.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("gatehouse: redis get: %w", err)
	}
	return val, nil
}

// Set stores a value with the given TTL.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("gatehouse: redis set: %w", err)
	}
	return nil
}

// Delete removes a value.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("gatehouse: redis del: %w", err)
	}
	return nil
}

// AddToSet adds a member to the set at key.
func (r *Redis) AddToSet(ctx context.Context, key, member string) error {
	if err := r.client.SAdd(ctx, key, member).Err(); err != nil {
		return fmt.Errorf("gatehouse: redis sadd: %w", err)
	}
	return nil
}

// RemoveFromSet removes a member from the set at key.
func (r *Redis) RemoveFromSet(ctx context.Context, key, member string) error {
	if err := r.client.SRem(ctx, key, member).Err(); err != nil {
		return fmt.Errorf("gatehouse: redis srem: %w", err)
	}
	return nil
}

// SetMembers returns the members of the set at key.
func (r *Redis) SetMembers(ctx context.Context, key string) ([]string, error) {
	members, err := r.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("gatehouse: redis smembers: %w", err)
	}
	return members, nil
}

// DeleteSet removes the set at key.
func (r *Redis) DeleteSet(ctx context.Context, key string) error {
	return r.Delete(ctx, key)
}

// Ping verifies the Redis connection.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("gatehouse: redis ping: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (r *Redis) Close() error { return r.client.Close() }
