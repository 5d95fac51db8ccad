package inventory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/storefront/internal/catalog"
	"github.com/odyssey-erp/storefront/internal/shared"
)

type memoryStore struct {
	entries   map[int64]Entry
	nextID    int64
	raceIDs   map[int64]bool
	failWith  error
	batches   int
	updates   int
	deletions int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: map[int64]Entry{}, raceIDs: map[int64]bool{}}
}

func (m *memoryStore) seed(vendorID, catalogID int64, price, mrp, stock string) Entry {
	m.nextID++
	e := Entry{
		ID:            m.nextID,
		VendorID:      vendorID,
		CatalogItemID: catalogID,
		Price:         decimal.RequireFromString(price),
		MRP:           decimal.RequireFromString(mrp),
		StockQuantity: decimal.RequireFromString(stock),
		IsActive:      true,
	}
	m.entries[e.ID] = e
	return e
}

func (m *memoryStore) FetchVendorInventory(_ context.Context, vendorID int64) ([]Entry, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []Entry
	for _, e := range m.entries {
		if e.VendorID == vendorID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryStore) CreateInventoryBatch(_ context.Context, vendorID int64, items []NewEntry) (BatchOutcome, error) {
	m.batches++
	var outcome BatchOutcome
	for _, item := range items {
		if m.raceIDs[item.CatalogItemID] {
			outcome.Errors = append(outcome.Errors, ItemError{CatalogItemID: item.CatalogItemID, Reason: ReasonAlreadyInInventory})
			continue
		}
		m.nextID++
		e := Entry{
			ID: m.nextID, VendorID: vendorID, CatalogItemID: item.CatalogItemID,
			Price: item.Price, MRP: item.MRP, StockQuantity: item.StockQuantity,
			IsActive: true, DeliverySupported: item.DeliverySupported,
		}
		m.entries[e.ID] = e
		outcome.Success = append(outcome.Success, e)
	}
	return outcome, nil
}

func (m *memoryStore) UpdateInventoryEntry(_ context.Context, id int64, patch Patch) (Entry, error) {
	m.updates++
	e, ok := m.entries[id]
	if !ok {
		return Entry{}, shared.ErrNotFound
	}
	e = patch.Apply(e)
	m.entries[id] = e
	return e, nil
}

func (m *memoryStore) DeleteInventoryEntry(_ context.Context, id int64) error {
	m.deletions++
	e, ok := m.entries[id]
	if !ok {
		return shared.ErrNotFound
	}
	now := time.Now()
	e.RemovedAt = &now
	e.IsActive = false
	m.entries[id] = e
	return nil
}

func (m *memoryStore) GetInventoryEntry(_ context.Context, id int64) (Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return Entry{}, fmt.Errorf("entry %d: %w", id, shared.ErrNotFound)
	}
	return e, nil
}

type staticCatalog map[int64]catalog.Item

func (c staticCatalog) Lookup(_ context.Context, ids ...int64) (map[int64]catalog.Item, error) {
	out := map[int64]catalog.Item{}
	for _, id := range ids {
		if item, ok := c[id]; ok {
			out[id] = item
		}
	}
	return out, nil
}

type countingRecorder map[string]int

func (c countingRecorder) ObserveBatchItems(outcome string, n int) { c[outcome] += n }

type memoryIdempotency struct{ keys map[string]bool }

func (m *memoryIdempotency) CheckAndInsert(_ context.Context, key, _ string) error {
	if m.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	m.keys[key] = true
	return nil
}

func (m *memoryIdempotency) Delete(_ context.Context, key string) error {
	delete(m.keys, key)
	return nil
}

func testCatalog() staticCatalog {
	return staticCatalog{
		1: {ID: 1, Name: "Basmati Rice", UnitOfMeasure: "kg", IsActive: true},
		2: {ID: 2, Name: "Toned Milk", UnitOfMeasure: "litre", IsActive: true},
		3: {ID: 3, Name: "Paneer", UnitOfMeasure: "pack", IsActive: true},
		9: {ID: 9, Name: "Discontinued Ghee", UnitOfMeasure: "jar", IsActive: false},
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func draft(price, mrp, stock string) DraftConfig {
	return DraftConfig{Price: dec(price), MRP: dec(mrp), StockQuantity: dec(stock)}
}

func TestSubmitBatchExcludesItemsAlreadyInInventory(t *testing.T) {
	store := newMemoryStore()
	store.seed(7, 1, "90", "100", "5")
	audit := &shared.MemoryAudit{}
	recorder := countingRecorder{}
	svc := NewService(store, testCatalog(), audit, nil, recorder)
	svc.newRef = func() string { return "batch-1" }

	sel := NewSelection(1, 2, 3)
	drafts := Drafts{1: draft("90", "100", "5"), 2: draft("60", "64", "20"), 3: draft("80", "95", "4")}
	store.raceIDs[3] = true

	res, err := svc.SubmitBatch(context.Background(), 7, sel, drafts)
	require.NoError(t, err)
	require.Equal(t, "batch-1", res.BatchRef)
	require.Len(t, res.Created, 1)
	require.Equal(t, int64(2), res.Created[0].CatalogItemID)
	require.Equal(t, []ItemError{
		{CatalogItemID: 1, Reason: ReasonAlreadyInInventory},
		{CatalogItemID: 3, Reason: ReasonAlreadyInInventory},
	}, res.Rejected)

	require.Len(t, audit.Logs, 1)
	require.Equal(t, "inventory_batch", audit.Logs[0].Entity)
	require.Equal(t, "batch-1", audit.Logs[0].EntityID)
	require.Equal(t, 1, recorder["created"])
	require.Equal(t, 2, recorder["rejected"])
}

func TestSubmitBatchAllPresentSkipsStore(t *testing.T) {
	store := newMemoryStore()
	store.seed(7, 1, "90", "100", "5")
	svc := NewService(store, testCatalog(), nil, nil, nil)

	res, err := svc.SubmitBatch(context.Background(), 7, NewSelection(1), Drafts{1: draft("90", "100", "5")})
	require.NoError(t, err)
	require.Empty(t, res.Created)
	require.Len(t, res.Rejected, 1)
	require.Zero(t, store.batches)
}

func TestSubmitBatchScenarioE(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, testCatalog(), nil, nil, nil)
	sel := NewSelection(1, 2)
	drafts := Drafts{1: draft("50", "40", "10"), 2: draft("30", "35", "10")}

	require.False(t, IsSubmittable(sel, drafts))
	_, err := svc.SubmitBatch(context.Background(), 7, sel, drafts)
	require.ErrorIs(t, err, shared.ErrValidation)
	v, ok := shared.AsValidation(err)
	require.True(t, ok)
	require.Equal(t, []shared.FieldError{{Field: "items[1].mrp", Message: "must be greater than or equal to price"}}, v.Fields)
	require.Zero(t, store.batches)
}

func TestSubmitBatchRejectsInactiveAndUnknownCatalogItems(t *testing.T) {
	svc := NewService(newMemoryStore(), testCatalog(), nil, nil, nil)
	sel := NewSelection(9, 42)
	drafts := Drafts{9: draft("10", "12", "1"), 42: draft("10", "12", "1")}

	_, err := svc.SubmitBatch(context.Background(), 7, sel, drafts)
	v, ok := shared.AsValidation(err)
	require.True(t, ok)
	require.Equal(t, []shared.FieldError{
		{Field: "items[9]", Message: ReasonInactiveItem},
		{Field: "items[42]", Message: ReasonUnknownItem},
	}, v.Fields)
}

func TestSubmitBatchSurfacesTransportErrorVerbatim(t *testing.T) {
	store := newMemoryStore()
	store.failWith = shared.NewTransportError("fetch vendor inventory", errors.New("store returned 503"))
	svc := NewService(store, testCatalog(), nil, nil, nil)

	_, err := svc.SubmitBatch(context.Background(), 7, NewSelection(1), Drafts{1: draft("1", "1", "1")})
	require.ErrorIs(t, err, shared.ErrTransport)
	require.Contains(t, err.Error(), "store returned 503")
}

func TestSubmitBatchOnceRejectsReplay(t *testing.T) {
	store := newMemoryStore()
	idem := &memoryIdempotency{keys: map[string]bool{}}
	svc := NewService(store, testCatalog(), nil, idem, nil)
	ctx := context.Background()
	sel := NewSelection(2)
	drafts := Drafts{2: draft("60", "64", "20")}

	_, err := svc.SubmitBatchOnce(ctx, "k1", 7, sel, drafts)
	require.NoError(t, err)
	_, err = svc.SubmitBatchOnce(ctx, "k1", 7, sel, drafts)
	require.ErrorIs(t, err, shared.ErrDuplicate)

	_, err = svc.SubmitBatchOnce(ctx, "k2", 7, NewSelection(2), Drafts{2: draft("0", "64", "20")})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.False(t, idem.keys["batch:7:k2"], "failed submission releases its key")
}

func TestUpdateInventoryEntryValidatesBeforeStoreCall(t *testing.T) {
	store := newMemoryStore()
	e := store.seed(7, 1, "90", "100", "5")
	svc := NewService(store, testCatalog(), nil, nil, nil)
	ctx := context.Background()

	price := dec("120")
	_, err := svc.UpdateInventoryEntry(ctx, 7, e.ID, Patch{Price: &price})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Zero(t, store.updates)

	stock := dec("0")
	updated, err := svc.UpdateInventoryEntry(ctx, 7, e.ID, Patch{StockQuantity: &stock})
	require.NoError(t, err)
	require.True(t, updated.StockQuantity.IsZero())

	negative := dec("-1")
	_, err = svc.UpdateInventoryEntry(ctx, 7, e.ID, Patch{StockQuantity: &negative})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.UpdateInventoryEntry(ctx, 7, e.ID, Patch{})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestEntryOwnershipAndRemoval(t *testing.T) {
	store := newMemoryStore()
	e := store.seed(7, 1, "90", "100", "5")
	svc := NewService(store, testCatalog(), nil, nil, nil)
	ctx := context.Background()

	_, err := svc.SetAvailability(ctx, 8, e.ID, false)
	require.ErrorIs(t, err, shared.ErrNotFound)

	updated, err := svc.SetAvailability(ctx, 7, e.ID, false)
	require.NoError(t, err)
	require.False(t, updated.IsActive)

	require.NoError(t, svc.RemoveEntry(ctx, 7, e.ID))
	require.ErrorIs(t, svc.RemoveEntry(ctx, 7, e.ID), shared.ErrNotFound)
	require.Equal(t, 1, store.deletions)

	views, err := svc.ListEntries(ctx, 7)
	require.NoError(t, err)
	require.Empty(t, views)
}

type recordingInvalidator struct {
	vendors []int64
	err     error
}

func (r *recordingInvalidator) InvalidatePlans(_ context.Context, vendorID int64) error {
	r.vendors = append(r.vendors, vendorID)
	return r.err
}

func TestStockWritesInvalidatePlans(t *testing.T) {
	store := newMemoryStore()
	e := store.seed(7, 1, "90", "100", "5")
	svc := NewService(store, testCatalog(), nil, nil, nil)
	plans := &recordingInvalidator{}
	svc.UsePlanInvalidator(plans)
	ctx := context.Background()

	stock := dec("0")
	_, err := svc.UpdateInventoryEntry(ctx, 7, e.ID, Patch{StockQuantity: &stock})
	require.NoError(t, err)

	_, err = svc.SubmitBatch(ctx, 7, NewSelection(1), Drafts{1: draft("90", "100", "5")})
	require.NoError(t, err)
	require.Equal(t, []int64{7}, plans.vendors, "a batch that creates nothing changes no stock")

	_, err = svc.SubmitBatch(ctx, 7, NewSelection(2), Drafts{2: draft("60", "64", "20")})
	require.NoError(t, err)

	high := dec("150")
	_, err = svc.UpdateInventoryEntry(ctx, 7, e.ID, Patch{Price: &high})
	require.ErrorIs(t, err, shared.ErrValidation)

	plans.err = errors.New("redis down")
	require.NoError(t, svc.RemoveEntry(ctx, 7, e.ID))
	require.Equal(t, []int64{7, 7, 7}, plans.vendors)
}

func TestStockLevelsCarryCatalogUnit(t *testing.T) {
	store := newMemoryStore()
	store.seed(7, 1, "90", "100", "5")
	store.seed(7, 2, "60", "64", "12.5")
	store.seed(8, 3, "80", "95", "4")
	svc := NewService(store, testCatalog(), nil, nil, nil)

	levels, err := svc.StockLevels(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, levels, 2)
	require.Equal(t, "kg", levels[1].Unit)
	require.True(t, levels[2].Current.Equal(dec("12.5")))
}
