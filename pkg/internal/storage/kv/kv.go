// Package kv 定义结果缓存使用的键值存储接口，以及 memory、redis、groupcache、nats 四种后端.
package kv

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/yeisme/iolabel/pkg/configs"
)

// ErrNotFound 键不存在或已过期.
var ErrNotFound = errors.New("kv: key not found")

// KVStore 键值存储. 实现需要并发安全.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set ttl 为 0 表示不过期.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// Keys 返回匹配 glob 模式的键，顺序不保证.
	Keys(ctx context.Context, pattern string) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}

// Client 由存储管理器持有的 KV 客户端.
type Client struct {
	KVStore
}

// KVType 后端类型，取值与 configs.KVConfig.Type 一致.
type KVType string

const (
	KVTypeMemory     KVType = configs.KVTypeMemory
	KVTypeRedis      KVType = configs.KVTypeRedis
	KVTypeGroupcache KVType = configs.KVTypeGroupcache
	KVTypeNATS       KVType = configs.KVTypeNATS
)

// KVFactory 按配置创建后端.
type KVFactory func(ctx context.Context, config configs.KVConfig) (KVStore, error)

var kvFactories = map[KVType]KVFactory{}

// RegisterKVFactory 由各后端在 init 中调用，可用构建标签裁剪.
func RegisterKVFactory(kvType KVType, factory KVFactory) {
	kvFactories[kvType] = factory
}

// GetRegisteredKVTypes 按名称排序返回已编译进来的后端.
func GetRegisteredKVTypes() []KVType {
	types := make([]KVType, 0, len(kvFactories))
	for t := range kvFactories {
		types = append(types, t)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// NewKVStore 创建 kvType 对应的后端.
func NewKVStore(ctx context.Context, kvType KVType, config configs.KVConfig) (KVStore, error) {
	factory, ok := kvFactories[kvType]
	if !ok {
		return nil, fmt.Errorf("unsupported kv type %q (registered: %v)", kvType, GetRegisteredKVTypes())
	}

	return factory(ctx, config)
}

// NewClient 按 config.Type 创建客户端.
func NewClient(ctx context.Context, config configs.KVConfig) (*Client, error) {
	store, err := NewKVStore(ctx, KVType(config.Type), config)
	if err != nil {
		return nil, err
	}

	return &Client{KVStore: store}, nil
}
