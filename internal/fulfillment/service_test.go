package fulfillment

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/storefront/internal/catalog"
	"github.com/odyssey-erp/storefront/internal/platform/cache"
	"github.com/odyssey-erp/storefront/internal/shared"
)

type fakeOrders struct {
	orders []Order
	err    error
	calls  atomic.Int32
	gate   chan struct{}
	got    OrderFilter
}

func (f *fakeOrders) FetchOrders(ctx context.Context, _ int64, _ time.Time, filter OrderFilter) ([]Order, error) {
	f.calls.Add(1)
	f.got = filter
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.orders, f.err
}

type fakeStock struct {
	levels map[int64]StockLevel
	err    error
	sawCtx chan error
}

func (f *fakeStock) StockLevels(ctx context.Context, _ int64) (map[int64]StockLevel, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.sawCtx != nil {
		<-ctx.Done()
		f.sawCtx <- ctx.Err()
		return nil, ctx.Err()
	}
	return f.levels, nil
}

type fakeCatalog map[int64]catalog.Item

func (c fakeCatalog) Lookup(_ context.Context, ids ...int64) (map[int64]catalog.Item, error) {
	out := map[int64]catalog.Item{}
	for _, id := range ids {
		if item, ok := c[id]; ok {
			out[id] = item
		}
	}
	return out, nil
}

type statusCounts struct {
	mu     sync.Mutex
	counts map[string]int
}

func (s *statusCounts) ObservePackagingStatus(status string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts == nil {
		s.counts = map[string]int{}
	}
	s.counts[status] += n
}

var planDay = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func planCatalog() fakeCatalog {
	return fakeCatalog{
		1: {ID: 1, Name: "Toned Milk", Category: "dairy", UnitOfMeasure: "litre"},
		2: {ID: 2, Name: "Basmati Rice", Category: "staples", UnitOfMeasure: "kg"},
		3: {ID: 3, Name: "Butter", Category: "dairy", UnitOfMeasure: "pack"},
	}
}

func TestPackagingPlanEnrichesAndSorts(t *testing.T) {
	orders := &fakeOrders{orders: []Order{
		recurring("c1", 2, "5", FrequencyDaily),
		oneTime("c1", 1, "2"),
		recurring("c2", 3, "1", FrequencyDaily),
		oneTime("c3", 4, "1"),
	}}
	stock := &fakeStock{levels: map[int64]StockLevel{
		1: {Current: dec("10")},
		2: {Current: dec("3"), Unit: "kg"},
		3: {Current: dec("0")},
	}}
	metrics := &statusCounts{}
	svc := NewService(orders, stock, planCatalog(), ServiceConfig{Metrics: metrics})

	plan, err := svc.PackagingPlan(context.Background(), 7, planDay, OrderFilter{Kind: KindOneTime})
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), plan.Date)
	require.Equal(t, KindOneTime, orders.got.Kind)

	names := make([]string, 0, len(plan.Requirements))
	for _, r := range plan.Requirements {
		names = append(names, r.ProductName)
	}
	require.Equal(t, []string{"", "Butter", "Toned Milk", "Basmati Rice"}, names, "unknown product sorts first with empty category")
	require.Equal(t, "litre", plan.Requirements[2].Unit, "unit falls back to catalog")
	require.Equal(t, Summary{Sufficient: 1, Low: 1, OutOfStock: 2}, plan.Summary)
	require.Equal(t, 2, metrics.counts[string(StatusOutOfStock)])
}

func TestPackagingPlanRejectsMalformedOrders(t *testing.T) {
	orders := &fakeOrders{orders: []Order{{CustomerID: "c", ProductRef: 1, Quantity: dec("2"), Kind: KindRecurring}}}
	svc := NewService(orders, &fakeStock{levels: map[int64]StockLevel{}}, nil, ServiceConfig{})
	_, err := svc.PackagingPlan(context.Background(), 7, planDay, OrderFilter{})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestPackagingPlanCancelsSiblingFetchOnFailure(t *testing.T) {
	orders := &fakeOrders{err: shared.NewTransportError("fetch orders", errors.New("orders service returned 500"))}
	stock := &fakeStock{sawCtx: make(chan error, 1)}
	svc := NewService(orders, stock, nil, ServiceConfig{})

	_, err := svc.PackagingPlan(context.Background(), 7, planDay, OrderFilter{})
	require.ErrorIs(t, err, shared.ErrTransport)
	require.Contains(t, err.Error(), "orders service returned 500")
	require.ErrorIs(t, <-stock.sawCtx, context.Canceled)
}

func TestPackagingPlanCollapsesConcurrentRequests(t *testing.T) {
	orders := &fakeOrders{orders: []Order{oneTime("c1", 1, "1")}, gate: make(chan struct{})}
	svc := NewService(orders, &fakeStock{levels: map[int64]StockLevel{1: {Current: dec("5")}}}, nil, ServiceConfig{})

	var wg sync.WaitGroup
	results := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.PackagingPlan(context.Background(), 7, planDay, OrderFilter{ProductIDs: []int64{2, 1}})
			results <- err
		}()
	}
	require.Eventually(t, func() bool { return orders.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(orders.gate)
	wg.Wait()
	close(results)
	for err := range results {
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), orders.calls.Load())
}

func TestPackagingPlanUsesCacheUntilInvalidated(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	orders := &fakeOrders{orders: []Order{oneTime("c1", 1, "4")}}
	stock := &fakeStock{levels: map[int64]StockLevel{1: {Current: dec("10")}}}
	svc := NewService(orders, stock, planCatalog(), ServiceConfig{Cache: cache.NewJSONCache(client, "plans", time.Minute)})
	ctx := context.Background()

	first, err := svc.PackagingPlan(ctx, 7, planDay, OrderFilter{})
	require.NoError(t, err)
	_, err = svc.PackagingPlan(ctx, 7, planDay, OrderFilter{})
	require.NoError(t, err)
	_, err = svc.PackagingPlan(ctx, 8, planDay, OrderFilter{})
	require.NoError(t, err)
	require.Equal(t, int32(2), orders.calls.Load())
	require.Equal(t, StatusSufficient, first.Requirements[0].StockStatus)

	stock.levels = map[int64]StockLevel{1: {Current: dec("0")}}
	require.NoError(t, svc.InvalidatePlans(ctx, 7))

	fresh, err := svc.PackagingPlan(ctx, 7, planDay, OrderFilter{})
	require.NoError(t, err)
	require.Equal(t, int32(3), orders.calls.Load())
	require.True(t, fresh.Requirements[0].CurrentStock.IsZero())
	require.Equal(t, StatusOutOfStock, fresh.Requirements[0].StockStatus)

	_, err = svc.PackagingPlan(ctx, 8, planDay, OrderFilter{})
	require.NoError(t, err)
	require.Equal(t, int32(3), orders.calls.Load(), "other vendors keep their cached plan")

	stock.levels = map[int64]StockLevel{1: {Current: dec("6")}}
	refreshed, err := svc.RefreshPlan(ctx, 7, planDay, OrderFilter{})
	require.NoError(t, err)
	require.Equal(t, StatusSufficient, refreshed.Requirements[0].StockStatus)

	cached, err := svc.PackagingPlan(ctx, 7, planDay, OrderFilter{})
	require.NoError(t, err)
	require.Equal(t, int32(4), orders.calls.Load())
	require.Equal(t, StatusSufficient, cached.Requirements[0].StockStatus)
}

func TestInvalidatePlansWithoutCache(t *testing.T) {
	svc := NewService(&fakeOrders{}, &fakeStock{}, nil, ServiceConfig{})
	require.NoError(t, svc.InvalidatePlans(context.Background(), 7))
}

func TestNewServiceKeepsConfiguredPolicy(t *testing.T) {
	plain := StockPolicy{}
	orders := &fakeOrders{orders: []Order{
		oneTime("c1", 1, "5"), oneTime("c2", 1, "3"), oneTime("c3", 1, "7"),
		recurring("c4", 1, "4", FrequencyDaily), recurring("c5", 1, "6", FrequencyDaily),
	}}
	stock := &fakeStock{levels: map[int64]StockLevel{1: {Current: dec("10")}}}
	svc := NewService(orders, stock, nil, ServiceConfig{Policy: &plain})
	require.Equal(t, plain, svc.Policy())

	plan, err := svc.PackagingPlan(context.Background(), 7, planDay, OrderFilter{})
	require.NoError(t, err)
	require.Equal(t, StatusLow, plan.Requirements[0].StockStatus)

	fallback := NewService(orders, stock, nil, ServiceConfig{}).Policy()
	require.True(t, fallback.MinCoverage.Equal(dec("0.5")))
	require.True(t, fallback.OneTimeShortfallIsOutOfStock)
}

func TestPackagingPlanSurvivesCancelledLeader(t *testing.T) {
	orders := &fakeOrders{orders: []Order{oneTime("c1", 1, "1")}, gate: make(chan struct{})}
	svc := NewService(orders, &fakeStock{levels: map[int64]StockLevel{1: {Current: dec("5")}}}, nil, ServiceConfig{})

	leaderCtx, cancel := context.WithCancel(context.Background())
	leader := make(chan error, 1)
	go func() {
		_, err := svc.PackagingPlan(leaderCtx, 7, planDay, OrderFilter{})
		leader <- err
	}()
	require.Eventually(t, func() bool { return orders.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	follower := make(chan error, 1)
	go func() {
		plan, err := svc.PackagingPlan(context.Background(), 7, planDay, OrderFilter{})
		if err == nil && len(plan.Requirements) != 1 {
			err = errors.New("unexpected plan")
		}
		follower <- err
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	require.ErrorIs(t, <-leader, context.Canceled)
	close(orders.gate)
	require.NoError(t, <-follower)
	require.Equal(t, int32(1), orders.calls.Load())
}

func TestInventoryAdapterRequiresService(t *testing.T) {
	_, err := NewInventoryAdapter(nil).StockLevels(context.Background(), 1)
	require.Error(t, err)
}
