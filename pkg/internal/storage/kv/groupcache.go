package kv

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"sync"
	"time"

	"github.com/golang/groupcache"

	"github.com/yeisme/iolabel/pkg/configs"
)

// GroupcacheKV 基于 Groupcache 的 KV 实现. 写入只落在本节点，读取经过 group，
// 配置了 peers 时由 key 的归属节点加载并在集群内缓存.
// groupcache 不支持删除已缓存的值，Delete 只移除本节点的数据.
type GroupcacheKV struct {
	cache *groupcache.Group    // Groupcache 缓存组
	peers *groupcache.HTTPPool // 对等节点池，未配置时为 nil
	data  map[string][]byte    // 本地存储数据（TTL 包装后的值）
	mu    sync.RWMutex         // 保护 data 的读写锁
	now   func() time.Time
}

// groupcacheGetter 实现 groupcache.Getter 接口.
type groupcacheGetter struct {
	kv *GroupcacheKV
}

func (g *groupcacheGetter) Get(_ context.Context, key string, dest groupcache.Sink) error {
	value, exists := g.kv.local(key)
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	if err := dest.SetBytes(value); err != nil {
		return fmt.Errorf("failed to set bytes to sink: %w", err)
	}

	return nil
}

var (
	groupsMu sync.Mutex
	// groupcache 的 group 与 HTTPPool 都是进程级的，同名 group 不能重复创建
	groups = map[string]*GroupcacheKV{}
)

// NewGroupcacheKV 创建 Groupcache KV 实例. 同一进程内同名 group 复用同一个实例.
func NewGroupcacheKV(_ context.Context, config configs.KVConfig) (KVStore, error) {
	gcConfig := config.Groupcache
	if gcConfig.Name == "" {
		return nil, errors.New("groupcache name is required")
	}

	groupsMu.Lock()
	defer groupsMu.Unlock()

	if kv, ok := groups[gcConfig.Name]; ok {
		return kv, nil
	}

	kv := &GroupcacheKV{
		data: make(map[string][]byte),
		now:  time.Now,
	}

	// 创建缓存组
	kv.cache = groupcache.NewGroup(gcConfig.Name, gcConfig.CacheBytes, &groupcacheGetter{kv: kv})

	// 如果有对等节点，设置 HTTP 池
	if len(gcConfig.Peers) > 0 {
		if gcConfig.Self == "" {
			return nil, errors.New("groupcache self is required when peers are set")
		}

		kv.peers = groupcache.NewHTTPPoolOpts(gcConfig.Self, &groupcache.HTTPPoolOptions{})
		kv.peers.Set(gcConfig.Peers...)
	}

	groups[gcConfig.Name] = kv

	return kv, nil
}

// PeerHandler 返回对等节点之间通信使用的 HTTP 处理器，未配置 peers 时为 nil.
func (g *GroupcacheKV) PeerHandler() http.Handler {
	if g.peers == nil {
		return nil
	}

	return g.peers
}

// Get 获取键的值.
func (g *GroupcacheKV) Get(ctx context.Context, key string) ([]byte, error) {
	// 单节点时本地没有就一定没有，避免读到 group 中已删除键的旧值
	if g.peers == nil {
		if _, ok := g.local(key); !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
	}

	var data []byte

	if err := g.cache.Get(ctx, key, groupcache.AllocatingByteSliceSink(&data)); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}

		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	value, live, err := unwrapTTL(data, g.now())
	if err != nil {
		return nil, err
	}

	if !live {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	return value, nil
}

// Set 设置键的值.
func (g *GroupcacheKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	data, err := wrapTTL(value, ttl, g.now())
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.data[key] = data

	return nil
}

// Delete 删除键.
func (g *GroupcacheKV) Delete(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.data, key)

	return nil
}

// Exists 检查键是否存在且未过期.
func (g *GroupcacheKV) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := g.Get(ctx, key); err != nil {
		return false, nil
	}

	return true, nil
}

// Keys 获取本节点上匹配 glob 模式的键.
func (g *GroupcacheKV) Keys(_ context.Context, pattern string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	keys := make([]string, 0, len(g.data))

	for key := range g.data {
		if pattern == "" || pattern == "*" {
			keys = append(keys, key)
			continue
		}

		matched, err := path.Match(pattern, key)
		if err != nil {
			return nil, fmt.Errorf("invalid key pattern %q: %w", pattern, err)
		}

		if matched {
			keys = append(keys, key)
		}
	}

	return keys, nil
}

// Ping 本地缓存总是可用.
func (g *GroupcacheKV) Ping(context.Context) error {
	return nil
}

// Close Groupcache 没有显式的关闭方法.
func (g *GroupcacheKV) Close() error {
	return nil
}

func (g *GroupcacheKV) local(key string) ([]byte, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	value, ok := g.data[key]

	return value, ok
}

func init() {
	RegisterKVFactory(KVTypeGroupcache, NewGroupcacheKV)
}
