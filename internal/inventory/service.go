package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/odyssey-erp/storefront/internal/catalog"
	"github.com/odyssey-erp/storefront/internal/shared"
)

// Store is the remote inventory store.
type Store interface {
	FetchVendorInventory(ctx context.Context, vendorID int64) ([]Entry, error)
	CreateInventoryBatch(ctx context.Context, vendorID int64, items []NewEntry) (BatchOutcome, error)
	UpdateInventoryEntry(ctx context.Context, id int64, patch Patch) (Entry, error)
	DeleteInventoryEntry(ctx context.Context, id int64) error
	GetInventoryEntry(ctx context.Context, id int64) (Entry, error)
}

// CatalogPort resolves catalog items for onboarding checks and units.
type CatalogPort interface {
	Lookup(ctx context.Context, ids ...int64) (map[int64]catalog.Item, error)
}

// BatchRecorder receives onboarding outcome counts.
type BatchRecorder interface {
	ObserveBatchItems(outcome string, n int)
}

// PlanInvalidator drops derived packaging plans of a vendor after its stock changed.
type PlanInvalidator interface {
	InvalidatePlans(ctx context.Context, vendorID int64) error
}

// EntryView is an entry joined with its catalog metadata.
type EntryView struct {
	Entry
	ProductName string `json:"product_name"`
	Brand       string `json:"brand"`
	Unit        string `json:"unit"`
}

// Service coordinates onboarding and edits of vendor inventory.
type Service struct {
	store       Store
	catalog     CatalogPort
	audit       shared.AuditPort
	idempotency shared.IdempotencyPort
	metrics     BatchRecorder
	plans       PlanInvalidator
	newRef      func() string
}

// NewService builds Service. audit, idem and metrics may be nil.
func NewService(store Store, catalog CatalogPort, audit shared.AuditPort, idem shared.IdempotencyPort, metrics BatchRecorder) *Service {
	return &Service{
		store:       store,
		catalog:     catalog,
		audit:       audit,
		idempotency: idem,
		metrics:     metrics,
		newRef:      uuid.NewString,
	}
}

// UsePlanInvalidator registers the consumer of stock changes.
func (s *Service) UsePlanInvalidator(p PlanInvalidator) {
	s.plans = p
}

// SubmitBatch validates the selection and onboards every item not already in the
// vendor's inventory. Items already present are reported in Rejected.
func (s *Service) SubmitBatch(ctx context.Context, vendorID int64, sel Selection, drafts Drafts) (BatchResult, error) {
	if err := ValidateBatch(sel, drafts).OrNil(); err != nil {
		return BatchResult{}, err
	}
	if err := s.checkCatalog(ctx, sel); err != nil {
		return BatchResult{}, err
	}

	existing, err := s.store.FetchVendorInventory(ctx, vendorID)
	if err != nil {
		return BatchResult{}, fmt.Errorf("inventory: fetch vendor inventory: %w", err)
	}
	present := make(map[int64]struct{}, len(existing))
	for _, e := range existing {
		if !e.Removed() {
			present[e.CatalogItemID] = struct{}{}
		}
	}

	result := BatchResult{BatchRef: s.newRef(), Created: []Entry{}, Rejected: []ItemError{}}
	var pending []NewEntry
	for _, id := range sel.IDs() {
		if _, ok := present[id]; ok {
			result.Rejected = append(result.Rejected, ItemError{CatalogItemID: id, Reason: ReasonAlreadyInInventory})
			continue
		}
		cfg := drafts[id]
		pending = append(pending, NewEntry{
			CatalogItemID:     id,
			Price:             cfg.Price,
			MRP:               cfg.MRP,
			StockQuantity:     cfg.StockQuantity,
			DeliverySupported: cfg.DeliverySupported,
		})
	}

	if len(pending) > 0 {
		outcome, err := s.store.CreateInventoryBatch(ctx, vendorID, pending)
		if err != nil {
			return BatchResult{}, fmt.Errorf("inventory: create batch: %w", err)
		}
		result.Created = append(result.Created, outcome.Success...)
		result.Rejected = append(result.Rejected, outcome.Errors...)
	}
	sort.SliceStable(result.Rejected, func(i, j int) bool {
		return result.Rejected[i].CatalogItemID < result.Rejected[j].CatalogItemID
	})

	if s.metrics != nil {
		s.metrics.ObserveBatchItems("created", len(result.Created))
		s.metrics.ObserveBatchItems("rejected", len(result.Rejected))
	}
	if len(result.Created) > 0 {
		s.invalidatePlans(ctx, vendorID)
	}
	s.record(ctx, vendorID, "inventory:onboard", "inventory_batch", result.BatchRef, map[string]any{
		"selected": len(sel),
		"created":  len(result.Created),
		"rejected": len(result.Rejected),
	})
	return result, nil
}

// SubmitBatchOnce runs SubmitBatch guarded by an idempotency key. A repeated key
// fails with shared.ErrIdempotencyConflict; a failed submission releases the key.
func (s *Service) SubmitBatchOnce(ctx context.Context, key string, vendorID int64, sel Selection, drafts Drafts) (BatchResult, error) {
	if key == "" || s.idempotency == nil {
		return s.SubmitBatch(ctx, vendorID, sel, drafts)
	}
	scoped := fmt.Sprintf("batch:%d:%s", vendorID, key)
	if err := s.idempotency.CheckAndInsert(ctx, scoped, "inventory"); err != nil {
		return BatchResult{}, err
	}
	result, err := s.SubmitBatch(ctx, vendorID, sel, drafts)
	if err != nil {
		_ = s.idempotency.Delete(ctx, scoped)
		return BatchResult{}, err
	}
	return result, nil
}

func (s *Service) checkCatalog(ctx context.Context, sel Selection) error {
	if s.catalog == nil {
		return nil
	}
	items, err := s.catalog.Lookup(ctx, sel.IDs()...)
	if err != nil {
		return fmt.Errorf("inventory: catalog lookup: %w", err)
	}
	v := &shared.ValidationError{}
	for _, id := range sel.IDs() {
		item, ok := items[id]
		switch {
		case !ok:
			v.Add(fmt.Sprintf("items[%d]", id), ReasonUnknownItem)
		case !item.IsActive:
			v.Add(fmt.Sprintf("items[%d]", id), ReasonInactiveItem)
		}
	}
	return v.OrNil()
}

// GetEntry returns one of the vendor's live entries.
func (s *Service) GetEntry(ctx context.Context, vendorID, id int64) (Entry, error) {
	entry, err := s.store.GetInventoryEntry(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Entry{}, fmt.Errorf("inventory: entry %d: %w", id, shared.ErrNotFound)
		}
		return Entry{}, fmt.Errorf("inventory: get entry: %w", err)
	}
	if entry.VendorID != vendorID || entry.Removed() {
		return Entry{}, fmt.Errorf("inventory: entry %d: %w", id, shared.ErrNotFound)
	}
	return entry, nil
}

// UpdateInventoryEntry merges patch onto the current entry and checks the price, MRP
// and stock invariants before the store is called.
func (s *Service) UpdateInventoryEntry(ctx context.Context, vendorID, id int64, patch Patch) (Entry, error) {
	if patch.Empty() {
		return Entry{}, shared.NewValidationError("patch", "no fields to update")
	}
	current, err := s.GetEntry(ctx, vendorID, id)
	if err != nil {
		return Entry{}, err
	}
	if err := ValidateEntry(patch.Apply(current)).OrNil(); err != nil {
		return Entry{}, err
	}
	updated, err := s.store.UpdateInventoryEntry(ctx, id, patch)
	if err != nil {
		return Entry{}, fmt.Errorf("inventory: update entry: %w", err)
	}
	s.invalidatePlans(ctx, vendorID)
	s.record(ctx, vendorID, "inventory:update", "inventory_entry", fmt.Sprint(id), patchMeta(patch))
	return updated, nil
}

// SetAvailability toggles whether the entry is offered to customers.
func (s *Service) SetAvailability(ctx context.Context, vendorID, id int64, active bool) (Entry, error) {
	return s.UpdateInventoryEntry(ctx, vendorID, id, Patch{IsActive: &active})
}

// RemoveEntry moves the entry to its terminal removed state.
func (s *Service) RemoveEntry(ctx context.Context, vendorID, id int64) error {
	if _, err := s.GetEntry(ctx, vendorID, id); err != nil {
		return err
	}
	if err := s.store.DeleteInventoryEntry(ctx, id); err != nil {
		return fmt.Errorf("inventory: delete entry: %w", err)
	}
	s.invalidatePlans(ctx, vendorID)
	s.record(ctx, vendorID, "inventory:remove", "inventory_entry", fmt.Sprint(id), nil)
	return nil
}

// ListEntries returns the vendor's live entries with catalog metadata, ordered by id.
func (s *Service) ListEntries(ctx context.Context, vendorID int64) ([]EntryView, error) {
	entries, err := s.liveEntries(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	items, err := s.lookup(ctx, entries)
	if err != nil {
		return nil, err
	}
	views := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		item := items[e.CatalogItemID]
		views = append(views, EntryView{Entry: e, ProductName: item.Name, Brand: item.Brand, Unit: item.UnitOfMeasure})
	}
	return views, nil
}

// StockLevels maps catalog item id to the vendor's on-hand stock.
func (s *Service) StockLevels(ctx context.Context, vendorID int64) (map[int64]StockLevel, error) {
	entries, err := s.liveEntries(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	items, err := s.lookup(ctx, entries)
	if err != nil {
		return nil, err
	}
	levels := make(map[int64]StockLevel, len(entries))
	for _, e := range entries {
		levels[e.CatalogItemID] = StockLevel{Current: e.StockQuantity, Unit: items[e.CatalogItemID].UnitOfMeasure}
	}
	return levels, nil
}

func (s *Service) liveEntries(ctx context.Context, vendorID int64) ([]Entry, error) {
	entries, err := s.store.FetchVendorInventory(ctx, vendorID)
	if err != nil {
		return nil, fmt.Errorf("inventory: fetch vendor inventory: %w", err)
	}
	live := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !e.Removed() {
			live = append(live, e)
		}
	}
	sort.Slice(live, func(i, j int) bool { return live[i].ID < live[j].ID })
	return live, nil
}

func (s *Service) lookup(ctx context.Context, entries []Entry) (map[int64]catalog.Item, error) {
	if s.catalog == nil || len(entries) == 0 {
		return map[int64]catalog.Item{}, nil
	}
	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.CatalogItemID)
	}
	items, err := s.catalog.Lookup(ctx, ids...)
	if err != nil {
		return nil, fmt.Errorf("inventory: catalog lookup: %w", err)
	}
	return items, nil
}

// invalidatePlans is best effort: the write already succeeded and a failed
// invalidation leaves plans to expire with their cache TTL.
func (s *Service) invalidatePlans(ctx context.Context, vendorID int64) {
	if s.plans == nil {
		return
	}
	_ = s.plans.InvalidatePlans(ctx, vendorID)
}

func (s *Service) record(ctx context.Context, vendorID int64, action, entity, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	sess, _ := shared.VendorFromContext(ctx)
	_ = s.audit.Record(ctx, shared.AuditLog{
		VendorID: vendorID,
		ActorID:  sess.ActorID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Meta:     meta,
	})
}

func patchMeta(p Patch) map[string]any {
	meta := map[string]any{}
	if p.Price != nil {
		meta["price"] = p.Price.String()
	}
	if p.MRP != nil {
		meta["mrp"] = p.MRP.String()
	}
	if p.StockQuantity != nil {
		meta["stock_quantity"] = p.StockQuantity.String()
	}
	if p.DeliverySupported != nil {
		meta["delivery_supported"] = *p.DeliverySupported
	}
	if p.IsActive != nil {
		meta["is_active"] = *p.IsActive
	}
	return meta
}
