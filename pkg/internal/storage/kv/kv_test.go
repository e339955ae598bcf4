package kv_test

import (
	"context"
	"crypto/md5" //nolint:gosec // 只用来生成键
	"encoding/hex"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/iolabel/pkg/classify"
	"github.com/yeisme/iolabel/pkg/configs"
	"github.com/yeisme/iolabel/pkg/internal/storage/kv"
)

// resultPayload 一条典型的分类结果，与结果缓存中存储的大小相当.
func resultPayload(b *testing.B) []byte {
	b.Helper()

	app, date, start := "vpicio_uni_h5", "2017-03-20", int64(1490000000)

	data, err := sonic.Marshal(&classify.Result{
		Application:   &app,
		ComputeSystem: "edison",
		Date:          &date,
		FileSystem:    "scratch3",
		LogFile:       "glock_vpicio_uni_h5_id1234_3-20-4567-1234567890_1.darshan",
		MD5:           "0123456789abcdef0123456789abcdef",
		ReadOrWrite:   classify.ModeWrite,
		SharedOrFPP:   classify.PatternShared,
		StartTime:     &start,
	})
	if err != nil {
		b.Fatalf("marshal result: %v", err)
	}

	return data
}

func resultKey(run string, i uint64) string {
	sum := md5.Sum(fmt.Appendf(nil, "log-%d", i)) //nolint:gosec // 只用来生成键

	return "iolabel:result:" + hex.EncodeToString(sum[:]) + ":" + run
}

func BenchmarkMemoryKV(b *testing.B) {
	store, err := kv.NewKVStore(context.Background(), kv.KVTypeMemory, configs.KVConfig{})
	if err != nil {
		b.Fatalf("create memory kv: %v", err)
	}
	defer store.Close()

	benchResultCache(b, store)
}

func BenchmarkGroupcacheKV(b *testing.B) {
	store, err := kv.NewKVStore(context.Background(), kv.KVTypeGroupcache, configs.KVConfig{
		Groupcache: configs.GroupcacheKVConfig{Name: "iolabel-bench", CacheBytes: 64 << 20},
	})
	if err != nil {
		b.Fatalf("create groupcache kv: %v", err)
	}
	defer store.Close()

	benchResultCache(b, store)
}

// BenchmarkRedisKV 需要 IOLABEL_BENCH_REDIS=<addr>.
func BenchmarkRedisKV(b *testing.B) {
	addr := os.Getenv("IOLABEL_BENCH_REDIS")
	if addr == "" {
		b.Skip("set IOLABEL_BENCH_REDIS=host:port to enable")
	}

	cfg := configs.KVConfig{Type: string(kv.KVTypeRedis), Redis: configs.RedisKVConfig{Addr: addr}}

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeRedis, cfg)
	if err != nil {
		b.Skipf("redis not available: %v", err)
	}
	defer store.Close()

	benchResultCache(b, store)
}

// benchResultCache 模拟 batch 的访问模式：先查缓存，未命中时写入.
func benchResultCache(b *testing.B, store kv.KVStore) {
	ctx := context.Background()
	payload := resultPayload(b)

	for _, ttl := range []time.Duration{0, 24 * time.Hour} {
		run := fmt.Sprintf("miss-then-set/ttl=%s", ttl)

		b.Run(run, func(b *testing.B) {
			b.ReportAllocs()

			var i uint64
			for b.Loop() {
				i++
				key := resultKey(run, i)

				if _, err := store.Get(ctx, key); err == nil {
					b.Fatalf("unexpected hit for %s", key)
				}

				if err := store.Set(ctx, key, payload, ttl); err != nil {
					b.Fatalf("set failed: %v", err)
				}
			}
		})
	}

	var ctr atomic.Uint64

	b.Run("hit/parallel", func(b *testing.B) {
		const warm = 1024

		for i := range uint64(warm) {
			if err := store.Set(ctx, resultKey("hit", i), payload, 0); err != nil {
				b.Fatalf("warm set failed: %v", err)
			}
		}

		b.ReportAllocs()
		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				if _, err := store.Get(ctx, resultKey("hit", ctr.Add(1)%warm)); err != nil {
					b.Fatalf("get failed: %v", err)
				}
			}
		})
	})
}
