//go:build !no_redis

package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yeisme/iolabel/pkg/configs"
)

// scanCount 每轮 SCAN 的建议条数.
const scanCount = 512

// RedisKV 使用 Redis 保存缓存条目，过期交给服务端处理.
type RedisKV struct {
	rdb redis.UniversalClient
}

// NewRedisKV 连接 config.Redis 指定的实例并立即 PING 一次.
func NewRedisKV(ctx context.Context, config configs.KVConfig) (KVStore, error) {
	rc := config.Redis

	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{rc.Addr},
		Password: rc.Password,
		DB:       rc.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis kv: connect %s: %w", rc.Addr, err)
	}

	return &RedisKV{rdb: rdb}, nil
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	case err != nil:
		return nil, redisErr("get", key, err)
	}

	return b, nil
}

// Set ttl 为 0 表示永不过期.
func (r *RedisKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return redisErr("set", key, r.rdb.Set(ctx, key, value, ttl).Err())
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	return redisErr("del", key, r.rdb.Del(ctx, key).Err())
}

func (r *RedisKV) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, redisErr("exists", key, err)
	}

	return n == 1, nil
}

// Keys 使用 SCAN 遍历，避免 KEYS 阻塞服务端.
func (r *RedisKV) Keys(ctx context.Context, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}

	keys := make([]string, 0, scanCount)

	it := r.rdb.Scan(ctx, 0, pattern, scanCount).Iterator()
	for it.Next(ctx) {
		keys = append(keys, it.Val())
	}

	if err := it.Err(); err != nil {
		return nil, redisErr("scan", pattern, err)
	}

	return keys, nil
}

func (r *RedisKV) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *RedisKV) Close() error {
	return r.rdb.Close()
}

func redisErr(op, key string, err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("redis kv: %s %q: %w", op, key, err)
}

func init() {
	RegisterKVFactory(KVTypeRedis, NewRedisKV)
}
