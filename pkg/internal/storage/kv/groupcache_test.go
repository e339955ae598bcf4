package kv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/iolabel/pkg/configs"
)

func newGroupcache(t *testing.T, name string) *GroupcacheKV {
	t.Helper()

	store, err := NewKVStore(context.Background(), KVTypeGroupcache, configs.KVConfig{
		Groupcache: configs.GroupcacheKVConfig{Name: name, CacheBytes: 1 << 20},
	})
	require.NoError(t, err)

	return store.(*GroupcacheKV)
}

func TestGroupcacheKV(t *testing.T) {
	g := newGroupcache(t, "test-groupcache-kv")
	assert.Nil(t, g.PeerHandler())

	ctx := context.Background()

	_, err := g.Get(ctx, "iolabel:result:missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, g.Set(ctx, "iolabel:result:a", []byte("A"), 0))
	require.NoError(t, g.Set(ctx, "other", []byte("B"), time.Hour))

	got, err := g.Get(ctx, "iolabel:result:a")
	require.NoError(t, err)
	assert.Equal(t, []byte("A"), got)

	got, err = g.Get(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, []byte("B"), got)

	keys, err := g.Keys(ctx, "iolabel:result:*")
	require.NoError(t, err)
	assert.Equal(t, []string{"iolabel:result:a"}, keys)

	require.NoError(t, g.Delete(ctx, "iolabel:result:a"))

	ok, err := g.Exists(ctx, "iolabel:result:a")
	require.NoError(t, err)
	assert.False(t, ok)

	// 同名 group 复用同一个实例
	assert.Same(t, g, newGroupcache(t, "test-groupcache-kv"))
}

func TestGroupcacheKVExpiry(t *testing.T) {
	g := newGroupcache(t, "test-groupcache-expiry")

	now := time.Unix(1700000000, 0)
	g.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, g.Set(ctx, "short", []byte("v"), time.Minute))

	_, err := g.Get(ctx, "short")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)

	_, err = g.Get(ctx, "short")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestNATSKeyEncoding(t *testing.T) {
	key := "iolabel:result:0123:abcd"
	enc := natsKeyEncoder.Replace(key)
	assert.Equal(t, "iolabel=result=0123=abcd", enc)
	assert.Equal(t, key, natsKeyDecoder.Replace(enc))
}
