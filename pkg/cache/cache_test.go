package cache_test

import (
	"context"
	"errors"
	"fmt"
	"path"
	"testing"
	"time"

	"github.com/yeisme/iolabel/pkg/cache"
	"github.com/yeisme/iolabel/pkg/classify"
	"github.com/yeisme/iolabel/pkg/internal/storage/kv"
)

// mockKVStore 模拟KV存储实现.
type mockKVStore struct {
	data map[string][]byte
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{
		data: make(map[string][]byte),
	}
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if value, exists := m.data[key]; exists {
		return value, nil
	}

	return nil, kv.ErrNotFound
}

func (m *mockKVStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *mockKVStore) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *mockKVStore) Exists(ctx context.Context, key string) (bool, error) {
	_, exists := m.data[key]
	return exists, nil
}

func (m *mockKVStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys := make([]string, 0, len(m.data))

	for key := range m.data {
		if ok, _ := path.Match(pattern, key); ok {
			keys = append(keys, key)
		}
	}

	return keys, nil
}

func (m *mockKVStore) Ping(ctx context.Context) error {
	return nil
}

func (m *mockKVStore) Close() error {
	return nil
}

func sampleResult(md5 string) classify.Result {
	app := "vpicio_uni"

	return classify.Result{
		LogFile:       md5 + ".darshan",
		Application:   &app,
		ComputeSystem: "edison",
		FileSystem:    "scratch3",
		ReadOrWrite:   classify.ModeWrite,
		SharedOrFPP:   classify.PatternShared,
		MD5:           md5,
	}
}

// TestCache_Key 测试键前缀.
func TestCache_Key(t *testing.T) {
	c := cache.NewCache(newMockKVStore(), "iolabel:result:")

	if got := c.Key("abc", "12"); got != "iolabel:result:abc:12" {
		t.Errorf("unexpected key %q", got)
	}

	if got := cache.NewCache(newMockKVStore(), "").Key("abc"); got != "abc" {
		t.Errorf("unexpected key %q", got)
	}
}

// TestCache_Get 测试 Get 方法.
func TestCache_Get(t *testing.T) {
	mockStore := newMockKVStore()
	c := cache.NewCache(mockStore, "t")
	ctx := context.Background()

	// 测试获取不存在的键
	_, err := cache.Get[classify.Result](ctx, c, c.Key("nonexistent"))
	if !errors.Is(err, cache.ErrMiss) {
		t.Errorf("Expected ErrMiss for nonexistent key, got %v", err)
	}

	want := sampleResult("d41d8cd9")

	err = cache.Set(ctx, c, c.Key(want.MD5), want, 0)
	if err != nil {
		t.Fatalf("Failed to set cache: %v", err)
	}

	got, err := cache.Get[classify.Result](ctx, c, c.Key(want.MD5))
	if err != nil {
		t.Fatalf("Failed to get cache: %v", err)
	}

	if got.MD5 != want.MD5 || got.FileSystem != want.FileSystem || got.ApplicationOrEmpty() != "vpicio_uni" {
		t.Errorf("Retrieved result %+v does not match original %+v", got, want)
	}

	if got.Date != nil || got.StartTime != nil {
		t.Errorf("absent fields should stay nil, got %+v", got)
	}
}

// TestCache_GetCorrupted 测试反序列化失败.
func TestCache_GetCorrupted(t *testing.T) {
	mockStore := newMockKVStore()
	c := cache.NewCache(mockStore, "t")
	mockStore.data["t:bad"] = []byte("{not json")

	_, err := cache.Get[classify.Result](context.Background(), c, "t:bad")
	if err == nil || errors.Is(err, cache.ErrMiss) {
		t.Errorf("Expected unmarshal error, got %v", err)
	}
}

// TestCache_Delete 测试 Delete 与 Exists 方法.
func TestCache_Delete(t *testing.T) {
	c := cache.NewCache(newMockKVStore(), "t")
	ctx := context.Background()

	if err := cache.Set(ctx, c, c.Key("a"), sampleResult("a"), 0); err != nil {
		t.Fatalf("Failed to set cache: %v", err)
	}

	exists, err := c.Exists(ctx, c.Key("a"))
	if err != nil || !exists {
		t.Fatalf("Key should exist before deletion: %v", err)
	}

	if err := c.Delete(ctx, c.Key("a")); err != nil {
		t.Fatalf("Failed to delete cache: %v", err)
	}

	exists, err = c.Exists(ctx, c.Key("a"))
	if err != nil {
		t.Fatalf("Failed to check existence after deletion: %v", err)
	}

	if exists {
		t.Error("Key should not exist after deletion")
	}
}

// TestCache_Clear 测试 Clear 只删除本前缀下的键.
func TestCache_Clear(t *testing.T) {
	mockStore := newMockKVStore()
	c := cache.NewCache(mockStore, "iolabel:result")
	ctx := context.Background()

	for i := range 3 {
		md5 := fmt.Sprintf("%032d", i)
		if err := cache.Set(ctx, c, c.Key(md5), sampleResult(md5), 0); err != nil {
			t.Fatalf("Failed to set cache: %v", err)
		}
	}

	mockStore.data["unrelated"] = []byte("1")

	n, err := c.Clear(ctx)
	if err != nil {
		t.Fatalf("Failed to clear cache: %v", err)
	}

	if n != 3 {
		t.Errorf("Expected 3 deleted keys, got %d", n)
	}

	if len(mockStore.data) != 1 {
		t.Errorf("Expected only the unrelated key to remain, got %d", len(mockStore.data))
	}
}
