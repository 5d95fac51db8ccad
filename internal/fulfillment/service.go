package fulfillment

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/storefront/internal/catalog"
	"github.com/odyssey-erp/storefront/internal/platform/cache"
)

// OrderSource fetches resolved demand for a day.
type OrderSource interface {
	FetchOrders(ctx context.Context, vendorID int64, forDate time.Time, filter OrderFilter) ([]Order, error)
}

// StockSource reads a vendor's on-hand stock per product.
type StockSource interface {
	StockLevels(ctx context.Context, vendorID int64) (map[int64]StockLevel, error)
}

// CatalogPort resolves product names and categories.
type CatalogPort interface {
	Lookup(ctx context.Context, ids ...int64) (map[int64]catalog.Item, error)
}

// StatusRecorder receives per-status requirement counts.
type StatusRecorder interface {
	ObservePackagingStatus(status string, n int)
}

// Service builds packaging plans.
type Service struct {
	orders  OrderSource
	stock   StockSource
	catalog CatalogPort
	policy  StockPolicy
	cache   *cache.JSONCache
	metrics StatusRecorder
	group   singleflight.Group
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	Policy  *StockPolicy
	Cache   *cache.JSONCache
	Metrics StatusRecorder
}

// NewService builds Service. A nil Policy means DefaultStockPolicy.
func NewService(orders OrderSource, stock StockSource, catalog CatalogPort, cfg ServiceConfig) *Service {
	policy := DefaultStockPolicy()
	if cfg.Policy != nil {
		policy = *cfg.Policy
	}
	return &Service{
		orders:  orders,
		stock:   stock,
		catalog: catalog,
		policy:  policy,
		cache:   cfg.Cache,
		metrics: cfg.Metrics,
	}
}

// Policy returns the stock policy in use.
func (s *Service) Policy() StockPolicy { return s.policy }

// PackagingPlan aggregates the vendor's orders for forDate against current stock.
// Concurrent identical requests share one computation, which outlives the
// cancellation of whichever caller started it.
func (s *Service) PackagingPlan(ctx context.Context, vendorID int64, forDate time.Time, filter OrderFilter) (Plan, error) {
	day := truncateDay(forDate)
	key := planKey(vendorID, day, filter)
	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		return s.cachedPlan(detached, key, vendorID, day, filter)
	})
	select {
	case <-ctx.Done():
		return Plan{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Plan{}, res.Err
		}
		return res.Val.(Plan), nil
	}
}

// RefreshPlan recomputes the plan and overwrites its cache entry.
func (s *Service) RefreshPlan(ctx context.Context, vendorID int64, forDate time.Time, filter OrderFilter) (Plan, error) {
	day := truncateDay(forDate)
	plan, err := s.build(ctx, vendorID, day, filter)
	if err != nil {
		return Plan{}, err
	}
	if plans := s.plans(vendorID); plans != nil {
		cacheKey, err := plans.BuildKey(ctx, planKey(vendorID, day, filter))
		if err != nil {
			return plan, fmt.Errorf("fulfillment: plan cache key: %w", err)
		}
		if err := plans.StoreJSON(ctx, cacheKey, plan); err != nil {
			return plan, fmt.Errorf("fulfillment: store plan: %w", err)
		}
	}
	return plan, nil
}

// InvalidatePlans drops every cached plan of the vendor. Inventory writes call it
// so the next plan reads current stock.
func (s *Service) InvalidatePlans(ctx context.Context, vendorID int64) error {
	if err := s.plans(vendorID).Bump(ctx); err != nil {
		return fmt.Errorf("fulfillment: invalidate plans of vendor %d: %w", vendorID, err)
	}
	return nil
}

func (s *Service) plans(vendorID int64) *cache.JSONCache {
	return s.cache.Scoped("vendor-" + strconv.FormatInt(vendorID, 10))
}

func (s *Service) cachedPlan(ctx context.Context, key string, vendorID int64, day time.Time, filter OrderFilter) (Plan, error) {
	plans := s.plans(vendorID)
	if plans == nil {
		return s.build(ctx, vendorID, day, filter)
	}
	cacheKey, err := plans.BuildKey(ctx, key)
	if err != nil {
		return s.build(ctx, vendorID, day, filter)
	}
	var plan Plan
	err = plans.FetchJSON(ctx, cacheKey, &plan, func(ctx context.Context) (any, error) {
		return s.build(ctx, vendorID, day, filter)
	})
	if err != nil {
		return Plan{}, err
	}
	return plan, nil
}

func (s *Service) build(ctx context.Context, vendorID int64, day time.Time, filter OrderFilter) (Plan, error) {
	var (
		orders []Order
		stock  map[int64]StockLevel
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = s.orders.FetchOrders(gctx, vendorID, day, filter)
		if err != nil {
			return fmt.Errorf("fulfillment: fetch orders: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		stock, err = s.stock.StockLevels(gctx, vendorID)
		if err != nil {
			return fmt.Errorf("fulfillment: fetch stock levels: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Plan{}, err
	}
	if err := ValidateOrders(orders).OrNil(); err != nil {
		return Plan{}, err
	}

	policy := s.policy
	reqs := Aggregate(orders, stock, Options{Policy: &policy})
	if err := s.enrich(ctx, reqs); err != nil {
		return Plan{}, err
	}
	sort.SliceStable(reqs, func(i, j int) bool { return ByCategoryThenName(reqs[i], reqs[j]) })

	plan := Plan{VendorID: vendorID, Date: day, Requirements: reqs, Summary: Summarize(reqs)}
	if s.metrics != nil {
		s.metrics.ObservePackagingStatus(string(StatusSufficient), plan.Summary.Sufficient)
		s.metrics.ObservePackagingStatus(string(StatusLow), plan.Summary.Low)
		s.metrics.ObservePackagingStatus(string(StatusOutOfStock), plan.Summary.OutOfStock)
	}
	return plan, nil
}

func (s *Service) enrich(ctx context.Context, reqs []PackagingRequirement) error {
	if s.catalog == nil || len(reqs) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.ProductID)
	}
	items, err := s.catalog.Lookup(ctx, ids...)
	if err != nil {
		return fmt.Errorf("fulfillment: catalog lookup: %w", err)
	}
	for i := range reqs {
		item, ok := items[reqs[i].ProductID]
		if !ok {
			continue
		}
		reqs[i].ProductName = item.Name
		reqs[i].Category = item.Category
		if reqs[i].Unit == "" {
			reqs[i].Unit = item.UnitOfMeasure
		}
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func planKey(vendorID int64, day time.Time, filter OrderFilter) string {
	ids := append([]int64(nil), filter.ProductIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return fmt.Sprintf("plan:%d:%s:%s:%s", vendorID, day.Format("2006-01-02"), filter.Kind, strings.Join(parts, ","))
}
