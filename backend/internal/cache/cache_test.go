package cache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compare-service/backend/internal/title"
)

type countingLookup struct {
	calls  atomic.Int32
	latest map[string]int64
}

func (l *countingLookup) LatestRevisionID(ctx context.Context, t title.Title) (int64, bool, error) {
	l.calls.Add(1)
	id, ok := l.latest[t.DBKey]
	return id, ok, nil
}

func mustTitle(t *testing.T, s string) title.Title {
	t.Helper()
	tt, err := title.NewParser(true).Parse(s)
	require.NoError(t, err)
	return tt
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "page:latest:{ns:1:Foo_bar}", pageLatestKey(mustTitle(t, "Talk:Foo bar")))
	k := DiffKey{OldID: 5, NewID: 42, Model: "wikitext"}
	assert.Equal(t, "diff:{rev:5}:42:wikitext:"+DiffEngineVersion, k.String())
}

func TestTTLPolicy(t *testing.T) {
	p := TTLPolicy{Base: time.Minute, Jitter: 10 * time.Second}
	for i := 0; i < 50; i++ {
		got := p.ttl()
		assert.GreaterOrEqual(t, got, time.Minute)
		assert.Less(t, got, time.Minute+10*time.Second)
	}
	assert.Equal(t, time.Hour, TTLPolicy{Base: time.Hour}.ttl())
}

func TestPageCache_WithoutRedisPassesThrough(t *testing.T) {
	next := &countingLookup{latest: map[string]int64{"Foo": 42}}
	c := NewPageCache(nil, next, DefaultPagePolicy)

	id, ok, err := c.LatestRevisionID(context.Background(), mustTitle(t, "Foo"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	_, ok, err = c.LatestRevisionID(context.Background(), mustTitle(t, "Bar"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int32(2), next.calls.Load())
	assert.NoError(t, c.Forget(context.Background(), mustTitle(t, "Foo")))
}

func TestDiffCache_NilIsNoop(t *testing.T) {
	var c *DiffCache
	ctx := context.Background()
	k := DiffKey{OldID: 1, NewID: 2, Model: "text"}
	e, hit, err := c.Get(ctx, k)
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, e)
	assert.NoError(t, c.Set(ctx, k, &DiffEntry{Fragment: "x"}))
	assert.NoError(t, c.Purge(ctx, k))
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})
	// 若 Redis 未启动则跳过
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("skip: redis not available: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestPageCache_Redis(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()

	foo := mustTitle(t, "Cache test Foo")
	missing := mustTitle(t, "Cache test Missing")
	defer rdb.Del(ctx, pageLatestKey(foo), pageLatestKey(missing))
	rdb.Del(ctx, pageLatestKey(foo), pageLatestKey(missing))

	next := &countingLookup{latest: map[string]int64{foo.DBKey: 42}}
	c := NewPageCache(rdb, next, DefaultPagePolicy)

	for i := 0; i < 3; i++ {
		id, ok, err := c.LatestRevisionID(ctx, foo)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(42), id)
	}
	assert.Equal(t, int32(1), next.calls.Load())

	// 空值缓存
	for i := 0; i < 3; i++ {
		_, ok, err := c.LatestRevisionID(ctx, missing)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, int32(2), next.calls.Load())

	require.NoError(t, c.Forget(ctx, foo))
	next.latest[foo.DBKey] = 43
	id, _, err := c.LatestRevisionID(ctx, foo)
	require.NoError(t, err)
	assert.Equal(t, int64(43), id)
}

func TestDiffCache_Redis(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()
	c := NewDiffCache(rdb, TTLPolicy{Base: time.Minute})
	k := DiffKey{OldID: 900001, NewID: 900002, Model: "wikitext"}
	defer rdb.Del(ctx, k.String())

	_, hit, err := c.Get(ctx, k)
	require.NoError(t, err)
	assert.False(t, hit)

	want := &DiffEntry{Fragment: "<tr></tr>", Added: 1, Removed: 2, RenderedAt: time.Unix(1700000000, 0).UTC()}
	require.NoError(t, c.Set(ctx, k, want))

	got, hit, err := c.Get(ctx, k)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, want.Fragment, got.Fragment)
	assert.Equal(t, 1, got.Added)
	assert.Equal(t, 2, got.Removed)

	require.NoError(t, c.Purge(ctx, k))
	_, hit, err = c.Get(ctx, k)
	require.NoError(t, err)
	assert.False(t, hit)
}
