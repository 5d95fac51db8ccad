package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestCache(t *testing.T) *JSONCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewJSONCache(client, "test", time.Minute)
}

func TestFetchJSONCachesLoaderResult(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	key, err := c.BuildKey(ctx, "items")
	require.NoError(t, err)
	require.Equal(t, "test:items:1", key)

	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return payload{Name: "rice", Count: calls}, nil
	}

	var first, second payload
	require.NoError(t, c.FetchJSON(ctx, key, &first, loader))
	require.NoError(t, c.FetchJSON(ctx, key, &second, loader))
	require.Equal(t, 1, calls)
	require.Equal(t, first, second)
}

func TestBumpInvalidatesNamespace(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.Bump(ctx))
	ver, err := c.Version(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), ver)

	key, err := c.BuildKey(ctx, "items")
	require.NoError(t, err)
	require.Equal(t, "test:items:2", key)
}

func TestNilCacheCallsLoader(t *testing.T) {
	var c *JSONCache
	var out payload
	err := c.FetchJSON(context.Background(), "k", &out, func(context.Context) (any, error) {
		return payload{Name: "dal"}, nil
	})
	require.NoError(t, err)
	require.Equal(t, "dal", out.Name)

	boom := errors.New("store down")
	err = c.FetchJSON(context.Background(), "k", &out, func(context.Context) (any, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
}

func TestStoreJSONOverwritesKey(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	key, err := c.BuildKey(ctx, "plan", "7")
	require.NoError(t, err)

	require.NoError(t, c.StoreJSON(ctx, key, payload{Name: "first"}))
	require.NoError(t, c.StoreJSON(ctx, key, payload{Name: "second"}))

	var out payload
	require.NoError(t, c.FetchJSON(ctx, key, &out, func(context.Context) (any, error) {
		return nil, errors.New("loader must not run")
	}))
	require.Equal(t, "second", out.Name)
}

func TestScopedBumpLeavesSiblingsCached(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	seven, eight := c.Scoped("7"), c.Scoped("8")

	keySeven, err := seven.BuildKey(ctx, "plan")
	require.NoError(t, err)
	require.Equal(t, "test:7:plan:1", keySeven)
	keyEight, err := eight.BuildKey(ctx, "plan")
	require.NoError(t, err)
	require.NoError(t, seven.StoreJSON(ctx, keySeven, payload{Name: "seven"}))
	require.NoError(t, eight.StoreJSON(ctx, keyEight, payload{Name: "eight"}))

	require.NoError(t, seven.Bump(ctx))
	next, err := seven.BuildKey(ctx, "plan")
	require.NoError(t, err)
	require.Equal(t, "test:7:plan:2", next)

	again, err := eight.BuildKey(ctx, "plan")
	require.NoError(t, err)
	require.Equal(t, keyEight, again)
	var out payload
	require.NoError(t, eight.FetchJSON(ctx, again, &out, func(context.Context) (any, error) {
		return nil, errors.New("loader must not run")
	}))
	require.Equal(t, "eight", out.Name)

	var nilCache *JSONCache
	require.Nil(t, nilCache.Scoped("7"))
}
