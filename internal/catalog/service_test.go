package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/storefront/internal/platform/cache"
	"github.com/odyssey-erp/storefront/internal/shared"
)

type memoryStore struct {
	items []Item
	err   error
	calls int
}

func (m *memoryStore) FetchCatalogItems(context.Context) ([]Item, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]Item, len(m.items))
	copy(out, m.items)
	return out, nil
}

func sampleItems() []Item {
	return []Item{
		{ID: 3, Name: "Toned Milk", Brand: "Amul", Category: "dairy", UnitOfMeasure: "litre", IsActive: true},
		{ID: 1, Name: "Basmati Rice", Brand: "India Gate", Category: "staples", UnitOfMeasure: "kg", IsActive: true},
		{ID: 2, Name: "Butter", Brand: "Amul", Category: "dairy", UnitOfMeasure: "pack", IsActive: false},
	}
}

func newCachedService(t *testing.T, store Store) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(store, cache.NewJSONCache(client, "catalog", time.Minute))
}

func TestItemsSortedAndCached(t *testing.T) {
	store := &memoryStore{items: sampleItems()}
	svc := newCachedService(t, store)
	ctx := context.Background()

	items, err := svc.Items(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{2, 3, 1}, []int64{items[0].ID, items[1].ID, items[2].ID})

	_, err = svc.Items(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, store.calls)

	require.NoError(t, svc.Invalidate(ctx))
	_, err = svc.Items(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, store.calls)
}

func TestLookupWithoutCache(t *testing.T) {
	svc := NewService(&memoryStore{items: sampleItems()}, nil)
	found, err := svc.Lookup(context.Background(), 1, 99)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "Basmati Rice", found[1].Name)
}

func TestItemsSurfacesTransportError(t *testing.T) {
	storeErr := shared.NewTransportError("fetch catalog items", errors.New("catalog service unreachable"))
	svc := NewService(&memoryStore{err: storeErr}, nil)
	_, err := svc.Items(context.Background())
	require.ErrorIs(t, err, shared.ErrTransport)
	require.Contains(t, err.Error(), "catalog service unreachable")
}
