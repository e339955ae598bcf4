package kv

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/yeisme/iolabel/pkg/configs"
)

// natsKeyReplacer NATS KV 的键不允许出现 ':'，写入前替换为 '='.
var (
	natsKeyEncoder = strings.NewReplacer(":", "=")
	natsKeyDecoder = strings.NewReplacer("=", ":")
)

// NATSKV 基于 NATS JetStream KV 的 KV 实现，过期时间通过 TTL 包装值实现.
type NATSKV struct {
	kv     nats.KeyValue
	bucket string
	conn   *nats.Conn
	now    func() time.Time
}

// NewNATSKV 创建 NATS KV 实例，bucket 不存在时创建.
func NewNATSKV(_ context.Context, config configs.KVConfig) (KVStore, error) {
	natsConfig := config.NATS

	// 连接到 NATS
	opts := []nats.Option{nats.Name("iolabel-kv")}
	if natsConfig.User != "" {
		opts = append(opts, nats.UserInfo(natsConfig.User, natsConfig.Password))
	}

	nc, err := nats.Connect(natsConfig.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	// 创建 JetStream 上下文
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	kv, err := js.KeyValue(natsConfig.Bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{Bucket: natsConfig.Bucket})
	}

	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create/get KV bucket: %w", err)
	}

	return &NATSKV{
		kv:     kv,
		bucket: natsConfig.Bucket,
		conn:   nc,
		now:    time.Now,
	}, nil
}

// Get 获取键的值.
func (n *NATSKV) Get(_ context.Context, key string) ([]byte, error) {
	entry, err := n.kv.Get(natsKeyEncoder.Replace(key))
	if errors.Is(err, nats.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	value, live, err := unwrapTTL(entry.Value(), n.now())
	if err != nil {
		return nil, err
	}

	if !live {
		_ = n.kv.Delete(natsKeyEncoder.Replace(key))
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	return value, nil
}

// Set 设置键的值.
func (n *NATSKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	data, err := wrapTTL(value, ttl, n.now())
	if err != nil {
		return err
	}

	if _, err := n.kv.Put(natsKeyEncoder.Replace(key), data); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}

	return nil
}

// Delete 删除键.
func (n *NATSKV) Delete(_ context.Context, key string) error {
	err := n.kv.Delete(natsKeyEncoder.Replace(key))
	if err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete key: %w", err)
	}

	return nil
}

// Exists 检查键是否存在且未过期.
func (n *NATSKV) Exists(ctx context.Context, key string) (bool, error) {
	_, err := n.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}

	return err == nil, err
}

// Keys 获取匹配 glob 模式的键.
func (n *NATSKV) Keys(_ context.Context, pattern string) ([]string, error) {
	all, err := n.kv.Keys()
	if errors.Is(err, nats.ErrNoKeysFound) {
		return []string{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get keys: %w", err)
	}

	keys := make([]string, 0, len(all))

	for _, k := range all {
		key := natsKeyDecoder.Replace(k)

		if pattern != "" && pattern != "*" {
			matched, err := path.Match(pattern, key)
			if err != nil {
				return nil, fmt.Errorf("invalid key pattern %q: %w", pattern, err)
			}

			if !matched {
				continue
			}
		}

		keys = append(keys, key)
	}

	return keys, nil
}

// Ping 往返一次服务端.
func (n *NATSKV) Ping(ctx context.Context) error {
	return n.conn.FlushWithContext(ctx)
}

// Close 关闭 NATS 连接.
func (n *NATSKV) Close() error {
	n.conn.Close()
	return nil
}

func init() {
	RegisterKVFactory(KVTypeNATS, NewNATSKV)
}
