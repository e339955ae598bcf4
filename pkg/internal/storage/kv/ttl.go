package kv

import (
	"bytes"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
)

// 没有原生过期的后端（memory、groupcache、nats）把过期时间和值一起存储:
//
//	ttlPrefix + {"v": <base64 value>, "e": <unix seconds>}
//
// ttl <= 0 的值原样存储.
var ttlPrefix = []byte("IOTTL1:")

type expiring struct {
	Value     []byte `json:"v"`
	ExpiresAt int64  `json:"e"`
}

// wrapTTL 返回要存储的字节，总是新分配，调用方可以直接保存.
func wrapTTL(value []byte, ttl time.Duration, now time.Time) ([]byte, error) {
	if ttl <= 0 {
		return bytes.Clone(value), nil
	}

	b, err := sonic.Marshal(expiring{Value: value, ExpiresAt: now.Add(ttl).Unix()})
	if err != nil {
		return nil, fmt.Errorf("marshal ttl value: %w", err)
	}

	return append(bytes.Clone(ttlPrefix), b...), nil
}

// unwrapTTL 解出存储的值，已过期时 live 为 false. 返回的切片为副本.
func unwrapTTL(stored []byte, now time.Time) (value []byte, live bool, err error) {
	if !bytes.HasPrefix(stored, ttlPrefix) {
		return bytes.Clone(stored), true, nil
	}

	var e expiring
	if err := sonic.Unmarshal(stored[len(ttlPrefix):], &e); err != nil {
		return nil, false, fmt.Errorf("unmarshal ttl value: %w", err)
	}

	if e.ExpiresAt > 0 && now.Unix() >= e.ExpiresAt {
		return nil, false, nil
	}

	return e.Value, true, nil
}
