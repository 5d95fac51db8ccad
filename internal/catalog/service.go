package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/odyssey-erp/storefront/internal/platform/cache"
)

// Service serves catalog reads through a read-through cache.
type Service struct {
	store Store
	cache *cache.JSONCache
}

// NewService builds Service. cache may be nil.
func NewService(store Store, c *cache.JSONCache) *Service {
	return &Service{store: store, cache: c}
}

// Items returns every catalog item ordered by category then name.
func (s *Service) Items(ctx context.Context) ([]Item, error) {
	key, err := s.cache.BuildKey(ctx, "items")
	if err != nil {
		return s.load(ctx)
	}
	var items []Item
	err = s.cache.FetchJSON(ctx, key, &items, func(ctx context.Context) (any, error) {
		return s.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Service) load(ctx context.Context) ([]Item, error) {
	items, err := s.store.FetchCatalogItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: fetch items: %w", err)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Category != items[j].Category {
			return items[i].Category < items[j].Category
		}
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

// Lookup indexes catalog items by id. Unknown ids are absent from the map.
func (s *Service) Lookup(ctx context.Context, ids ...int64) (map[int64]Item, error) {
	items, err := s.Items(ctx)
	if err != nil {
		return nil, err
	}
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make(map[int64]Item, len(ids))
	for _, item := range items {
		if _, ok := want[item.ID]; ok || len(ids) == 0 {
			out[item.ID] = item
		}
	}
	return out, nil
}

// Invalidate drops cached catalog reads.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}
