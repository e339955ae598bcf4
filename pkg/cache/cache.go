// Package cache 提供基于键值存储的泛型缓存实现，用于缓存日志分类结果.
//
// 底层使用 sonic 做 JSON 序列化，支持TTL（生存时间）设置.
// 键统一加上前缀，Clear 只清理本前缀下的键.
//
// 基本用法:
//
//	store, _ := kv.NewKVStore(ctx, kv.KVTypeMemory, cfg.KV)
//	c := cache.NewCache(store, "iolabel:result")
//
//	err := cache.Set(ctx, c, c.Key(md5, fp), result, time.Hour)
//	cached, err := cache.Get[classify.Result](ctx, c, c.Key(md5, fp))
//
// 任何 kv.KVStore 都可以作为后端：memory、redis、groupcache、nats.
//
// 错误处理:
//   - 缓存未命中返回 ErrMiss，可用 errors.Is 判断
//   - 序列化/反序列化错误会被包装并返回
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/iolabel/pkg/internal/storage/kv"
)

// ErrMiss 缓存未命中.
var ErrMiss = errors.New("cache: miss")

// Cache 基于KV存储的缓存实现.
type Cache struct {
	kvStore kv.KVStore
	prefix  string
}

// NewCache 创建一个新的缓存实例，prefix 为空时不加前缀.
func NewCache(kvStore kv.KVStore, prefix string) *Cache {
	return &Cache{
		kvStore: kvStore,
		prefix:  strings.TrimSuffix(prefix, ":"),
	}
}

// Key 把各部分用 ":" 连接并加上前缀.
func (c *Cache) Key(parts ...string) string {
	if c.prefix == "" {
		return strings.Join(parts, ":")
	}

	return c.prefix + ":" + strings.Join(parts, ":")
}

// Get 泛型获取缓存值.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var zero T

	data, err := c.kvStore.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return zero, fmt.Errorf("%w: %s", ErrMiss, key)
	}

	if err != nil {
		return zero, err
	}

	var value T
	if err := sonic.Unmarshal(data, &value); err != nil {
		return zero, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return value, nil
}

// Set 泛型设置缓存值.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return c.kvStore.Set(ctx, key, data, ttl)
}

// Delete 删除缓存键.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.kvStore.Delete(ctx, key)
}

// Exists 检查缓存键是否存在.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	return c.kvStore.Exists(ctx, key)
}

// Keys 返回本前缀下的所有键.
func (c *Cache) Keys(ctx context.Context) ([]string, error) {
	return c.kvStore.Keys(ctx, c.Key("*"))
}

// Clear 清空本前缀下的缓存，返回删除的键数.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	keys, err := c.Keys(ctx)
	if err != nil {
		return 0, err
	}

	for _, key := range keys {
		// 部分KV存储可能不支持删除所有键
		if delErr := c.kvStore.Delete(ctx, key); delErr != nil {
			return 0, delErr
		}
	}

	return len(keys), nil
}
