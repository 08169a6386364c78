package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	cli    *redis.Client
	prefix string
}

func NewRedis(url, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisStore{cli: redis.NewClient(opts), prefix: prefix}, nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.cli.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.cli.Close()
}

func (r *RedisStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := r.cli.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return r.cli.Set(ctx, r.prefix+key, raw, ttl).Err()
}

func (r *RedisStore) Version(ctx context.Context, namespace string) (int64, error) {
	v, err := r.cli.Get(ctx, r.prefix+namespace+":version").Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (r *RedisStore) Bump(ctx context.Context, namespace string) error {
	return r.cli.Incr(ctx, r.prefix+namespace+":version").Err()
}
