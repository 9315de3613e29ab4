package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rs, err := DialRedis(context.Background(), RedisOptions{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { rs.Close() })
	return rs, mr
}

func TestRedisStore_InProcess(t *testing.T) {
	rs, _ := newMiniRedisStore(t)
	checkRedisStore(t, rs)
}

// TestRedisStore runs against a real server named by NOTEQUIZ_TEST_REDIS
// (host:port).
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("NOTEQUIZ_TEST_REDIS")
	if addr == "" {
		t.Skip("NOTEQUIZ_TEST_REDIS not set")
	}

	rs, err := DialRedis(context.Background(), RedisOptions{Addr: addr, Prefix: "notequiz:test:" + uuid.NewString() + ":"})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = rs.Clear(context.Background(), 0)
		rs.Close()
	})
	checkRedisStore(t, rs)
}

func checkRedisStore(t *testing.T, rs *RedisStore) {
	t.Helper()
	ctx := context.Background()

	_, err := rs.Load(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, rs.Save(ctx, "k", 1), ErrNotContainer)
	assert.ErrorIs(t, rs.Save(ctx, "", map[string]int{}), ErrInvalidKey)

	require.NoError(t, rs.Save(ctx, "k", map[string]int{"n": 1}))
	require.NoError(t, rs.Save(ctx, "j", []string{"x"}))

	ok, err := rs.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	var got map[string]int
	require.NoError(t, LoadJSON(ctx, rs, "k", &got))
	assert.Equal(t, 1, got["n"])

	st, err := rs.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "redis", st.Backend)
	assert.Equal(t, 2, st.Entries)
	assert.Positive(t, st.SizeBytes)
	assert.False(t, st.Oldest.After(st.Newest))

	n, err := rs.Clear(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)

	deleted, err := rs.Delete(ctx, "j")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = rs.Delete(ctx, "j")
	require.NoError(t, err)
	assert.False(t, deleted)

	n, err = rs.Clear(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ok, err = rs.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_ClearByAge(t *testing.T) {
	rs, mr := newMiniRedisStore(t)
	ctx := context.Background()

	require.NoError(t, rs.Save(ctx, "fresh", map[string]int{"n": 1}))
	mr.HSet(DefaultRedisPrefix+"stale",
		fieldValue, `{"n":2}`,
		fieldCreatedAt, "1000",
	)

	st, err := rs.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Entries)
	assert.Equal(t, time.UnixMilli(1000).Year(), st.Oldest.Year())

	n, err := rs.Clear(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ok, err := rs.Exists(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = rs.Exists(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisStore_PrefixIsolation(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	ctx := context.Background()

	a := NewRedisStore(rdb, "a:")
	b := NewRedisStore(rdb, "b:")
	require.NoError(t, a.Save(ctx, "k", map[string]int{"n": 1}))
	require.NoError(t, b.Save(ctx, "k", map[string]int{"n": 2}))
	mr.Set("unrelated", "x")

	n, err := a.Clear(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ok, err := b.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("unrelated"))
}
