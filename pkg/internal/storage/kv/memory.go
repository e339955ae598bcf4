package kv

import (
	"context"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/yeisme/iolabel/pkg/configs"
)

// MemoryKV 基于 sync.Map 的内存 KV 实现，过期时间通过 TTL 包装值实现.
type MemoryKV struct {
	data sync.Map // 并发安全的 map
	now  func() time.Time
}

// NewMemoryKV 创建内存 KV 实例.
func NewMemoryKV(_ context.Context, _ configs.KVConfig) (KVStore, error) {
	// 内存实现不需要特殊配置
	return &MemoryKV{now: time.Now}, nil
}

// Get 获取键的值，过期的键会被删除.
func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := m.load(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	value, live, err := unwrapTTL(data, m.now())
	if err != nil {
		return nil, err
	}

	if !live {
		m.data.Delete(key)
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	return value, nil
}

// Set 设置键的值.
func (m *MemoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	data, err := wrapTTL(value, ttl, m.now())
	if err != nil {
		return err
	}

	m.data.Store(key, data)

	return nil
}

// Delete 删除键.
func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.data.Delete(key)
	return nil
}

// Exists 检查键是否存在且未过期.
func (m *MemoryKV) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := m.Get(ctx, key); err != nil {
		return false, nil
	}

	return true, nil
}

// Keys 获取匹配 glob 模式的键，空模式返回全部.
func (m *MemoryKV) Keys(_ context.Context, pattern string) ([]string, error) {
	keys := make([]string, 0)

	var matchErr error

	m.data.Range(func(key, _ any) bool {
		k, ok := key.(string)
		if !ok {
			return true // 继续遍历
		}

		if pattern == "" || pattern == "*" {
			keys = append(keys, k)
			return true
		}

		matched, err := path.Match(pattern, k)
		if err != nil {
			matchErr = err
			return false
		}

		if matched {
			keys = append(keys, k)
		}

		return true
	})

	if matchErr != nil {
		return nil, fmt.Errorf("invalid key pattern %q: %w", pattern, matchErr)
	}

	return keys, nil
}

// Ping 内存实现总是可用.
func (m *MemoryKV) Ping(context.Context) error {
	return nil
}

// Close 关闭存储（内存实现无需操作）.
func (m *MemoryKV) Close() error {
	return nil
}

func (m *MemoryKV) load(key string) ([]byte, bool) {
	value, exists := m.data.Load(key)
	if !exists {
		return nil, false
	}

	data, ok := value.([]byte)

	return data, ok
}

func init() {
	RegisterKVFactory(KVTypeMemory, NewMemoryKV)
}
