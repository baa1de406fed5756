package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andipetruzz/modalrecomendacoes/pkg/metrics"
)

// Redis implements Store against a Redis server.
type Redis struct {
	client *redis.Client
}

// RedisOption applies a configuration option to the Redis store.
type RedisOption func(*redis.Options)

// WithPassword sets the AUTH password.
func WithPassword(password string) RedisOption {
	return func(o *redis.Options) { o.Password = password }
}

// WithDB selects the logical database.
func WithDB(db int) RedisOption {
	return func(o *redis.Options) { o.DB = db }
}

// NewRedis builds a Redis store for addr.
func NewRedis(addr string, opts ...RedisOption) *Redis {
	options := &redis.Options{
		Addr:         addr,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}
	for _, opt := range opts {
		opt(options)
	}
	return &Redis{client: redis.NewClient(options)}
}

// Ping verifies connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// Close releases the client's connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	start := time.Now()
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		metrics.RecordKVOp("get", msSince(start), nil)
		return "", false, nil
	}
	metrics.RecordKVOp("get", msSince(start), err)
	if err != nil {
		return "", false, fmt.Errorf("%w: get %s: %w", ErrUnavailable, key, err)
	}
	return val, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	start := time.Now()
	err := r.client.Set(ctx, key, value, 0).Err()
	metrics.RecordKVOp("set", msSince(start), err)
	if err != nil {
		return fmt.Errorf("%w: set %s: %w", ErrUnavailable, key, err)
	}
	return nil
}

func (r *Redis) Incr(ctx context.Context, key string) (int64, error) {
	start := time.Now()
	n, err := r.client.Incr(ctx, key).Result()
	metrics.RecordKVOp("incr", msSince(start), err)
	if err != nil {
		return 0, fmt.Errorf("%w: incr %s: %w", ErrUnavailable, key, err)
	}
	return n, nil
}

func (r *Redis) Expire(ctx context.Context, key string, ttl time.Duration) error {
	start := time.Now()
	err := r.client.Expire(ctx, key, ttl).Err()
	metrics.RecordKVOp("expire", msSince(start), err)
	if err != nil {
		return fmt.Errorf("%w: expire %s: %w", ErrUnavailable, key, err)
	}
	return nil
}

func (r *Redis) HIncrBy(ctx context.Context, key, field string, n int64) (int64, error) {
	start := time.Now()
	out, err := r.client.HIncrBy(ctx, key, field, n).Result()
	metrics.RecordKVOp("hincrby", msSince(start), err)
	if err != nil {
		return 0, fmt.Errorf("%w: hincrby %s %s: %w", ErrUnavailable, key, field, err)
	}
	return out, nil
}

func (r *Redis) HSet(ctx context.Context, key, field, value string) error {
	start := time.Now()
	err := r.client.HSet(ctx, key, field, value).Err()
	metrics.RecordKVOp("hset", msSince(start), err)
	if err != nil {
		return fmt.Errorf("%w: hset %s %s: %w", ErrUnavailable, key, field, err)
	}
	return nil
}

func (r *Redis) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	start := time.Now()
	out, err := r.client.HGetAll(ctx, key).Result()
	metrics.RecordKVOp("hgetall", msSince(start), err)
	if err != nil {
		return nil, fmt.Errorf("%w: hgetall %s: %w", ErrUnavailable, key, err)
	}
	return out, nil
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
