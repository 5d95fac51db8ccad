package discounts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/odyssey-erp/storefront/internal/inventory"
	"github.com/odyssey-erp/storefront/internal/pricing"
	"github.com/odyssey-erp/storefront/internal/shared"
)

// Store persists discounts. FetchDiscounts and GetDiscount join the owning entry's
// current price and product name.
type Store interface {
	FetchDiscounts(ctx context.Context, vendorID int64, filter Filter) ([]View, error)
	GetDiscount(ctx context.Context, id int64) (View, error)
	CreateDiscount(ctx context.Context, d Discount) (Discount, error)
	UpdateDiscount(ctx context.Context, d Discount) (Discount, error)
	DeleteDiscount(ctx context.Context, id int64) error
}

// EntryPort reads the current state of an inventory entry.
type EntryPort interface {
	GetEntry(ctx context.Context, vendorID, id int64) (inventory.Entry, error)
}

// Clock supplies the evaluation instant.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// Service manages the discount lifecycle.
type Service struct {
	store   Store
	entries EntryPort
	clock   Clock
	audit   shared.AuditPort
}

// NewService builds Service. clock defaults to the wall clock.
func NewService(store Store, entries EntryPort, clock Clock, audit shared.AuditPort) *Service {
	if clock == nil {
		clock = ClockFunc(time.Now)
	}
	return &Service{store: store, entries: entries, clock: clock, audit: audit}
}

// CreateDiscount prices spec against the entry's current price and stores it.
func (s *Service) CreateDiscount(ctx context.Context, vendorID int64, spec Spec) (Discount, error) {
	now := s.clock.Now()
	if spec.StartsAt.IsZero() {
		spec.StartsAt = now
	}
	entry, err := s.entry(ctx, vendorID, spec.VendorInventoryEntryID)
	if err != nil {
		return Discount{}, err
	}
	d := Discount{
		VendorID:               vendorID,
		VendorInventoryEntryID: spec.VendorInventoryEntryID,
		DiscountType:           spec.DiscountType,
		DiscountValue:          spec.DiscountValue,
		CardTitle:              spec.CardTitle,
		Description:            spec.Description,
		Terms:                  spec.Terms,
		StartsAt:               spec.StartsAt,
		EndsAt:                 spec.EndsAt,
		IsActive:               spec.IsActive,
	}
	if err := s.price(&d, entry); err != nil {
		return Discount{}, err
	}
	if err := validateWindow(d); err != nil {
		return Discount{}, err
	}
	if err := s.ensureSingleActive(ctx, vendorID, d, now); err != nil {
		return Discount{}, err
	}
	created, err := s.store.CreateDiscount(ctx, d)
	if err != nil {
		return Discount{}, fmt.Errorf("discounts: create: %w", err)
	}
	s.record(ctx, vendorID, "discount:create", created.ID, map[string]any{
		"entry_id":         created.VendorInventoryEntryID,
		"discount_type":    string(created.DiscountType),
		"discount_value":   created.DiscountValue.String(),
		"discounted_price": created.DiscountedPrice.String(),
	})
	return created, nil
}

// UpdateDiscount applies patch. The discounted price is recomputed when the patch
// changes the type or value, or when the entry's price moved since the last computation.
func (s *Service) UpdateDiscount(ctx context.Context, vendorID, id int64, patch Patch) (Discount, error) {
	current, err := s.owned(ctx, vendorID, id)
	if err != nil {
		return Discount{}, err
	}
	next := patch.Apply(current.Discount)
	entry, err := s.entry(ctx, vendorID, next.VendorInventoryEntryID)
	if err != nil {
		return Discount{}, err
	}
	if patch.TouchesPricing() || !entry.Price.Equal(current.ComputedFrom) {
		if err := s.price(&next, entry); err != nil {
			return Discount{}, err
		}
	}
	if err := validateWindow(next); err != nil {
		return Discount{}, err
	}
	if err := s.ensureSingleActive(ctx, vendorID, next, s.clock.Now()); err != nil {
		return Discount{}, err
	}
	updated, err := s.store.UpdateDiscount(ctx, next)
	if err != nil {
		return Discount{}, fmt.Errorf("discounts: update: %w", err)
	}
	s.record(ctx, vendorID, "discount:update", id, map[string]any{
		"recomputed":       !updated.DiscountedPrice.Equal(current.DiscountedPrice),
		"discounted_price": updated.DiscountedPrice.String(),
	})
	return updated, nil
}

// DeleteDiscount removes the discount. A missing id is a no-op.
func (s *Service) DeleteDiscount(ctx context.Context, vendorID, id int64) error {
	if _, err := s.owned(ctx, vendorID, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.store.DeleteDiscount(ctx, id); err != nil && !errors.Is(err, shared.ErrNotFound) {
		return fmt.Errorf("discounts: delete: %w", err)
	}
	s.record(ctx, vendorID, "discount:delete", id, nil)
	return nil
}

// ListDiscounts returns the vendor's discounts joined with current base prices,
// ordered by id.
func (s *Service) ListDiscounts(ctx context.Context, vendorID int64, filter Filter) ([]View, error) {
	views, err := s.store.FetchDiscounts(ctx, vendorID, filter)
	if err != nil {
		return nil, fmt.Errorf("discounts: list: %w", err)
	}
	now := s.clock.Now()
	out := make([]View, 0, len(views))
	for _, v := range views {
		if filter.IsActive != nil && v.IsActive != *filter.IsActive {
			continue
		}
		out = append(out, derive(v, now))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetDiscount returns one discount view.
func (s *Service) GetDiscount(ctx context.Context, vendorID, id int64) (View, error) {
	v, err := s.owned(ctx, vendorID, id)
	if err != nil {
		return View{}, err
	}
	return derive(v, s.clock.Now()), nil
}

// ExpiringWithin lists active discounts whose window closes in (now, now+window].
func (s *Service) ExpiringWithin(ctx context.Context, vendorID int64, window time.Duration) ([]View, error) {
	active := true
	views, err := s.ListDiscounts(ctx, vendorID, Filter{IsActive: &active})
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	cutoff := now.Add(window)
	var out []View
	for _, v := range views {
		if v.Status == StatusActive && v.EndsAt != nil && !v.EndsAt.After(cutoff) {
			out = append(out, v)
		}
	}
	return out, nil
}

// derive fills the read-time fields. The displayed discounted price always comes from
// the current base price.
func derive(v View, now time.Time) View {
	v.Status = v.StatusAt(now)
	v.DiscountedPrice = pricing.DisplayPrice(pricing.RawDiscountedPrice(v.BasePrice, v.DiscountType, v.DiscountValue))
	v.EffectivePrice = EffectivePrice(v.BasePrice, []Discount{v.Discount}, now)
	return v
}

func (s *Service) entry(ctx context.Context, vendorID, entryID int64) (inventory.Entry, error) {
	entry, err := s.entries.GetEntry(ctx, vendorID, entryID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return inventory.Entry{}, shared.NewValidationError("vendor_inventory_entry_id", "inventory entry does not exist").WithCause(shared.ErrNotFound)
		}
		return inventory.Entry{}, fmt.Errorf("discounts: read entry: %w", err)
	}
	return entry, nil
}

func (s *Service) owned(ctx context.Context, vendorID, id int64) (View, error) {
	v, err := s.store.GetDiscount(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return View{}, fmt.Errorf("discounts: discount %d: %w", id, shared.ErrNotFound)
		}
		return View{}, fmt.Errorf("discounts: get: %w", err)
	}
	if v.VendorID != vendorID {
		return View{}, fmt.Errorf("discounts: discount %d: %w", id, shared.ErrNotFound)
	}
	return v, nil
}

func (s *Service) price(d *Discount, entry inventory.Entry) error {
	price, err := pricing.ComputeDiscountedPrice(entry.Price, d.DiscountType, d.DiscountValue)
	if err != nil {
		return err
	}
	if !price.IsPositive() {
		return shared.NewValidationError("discount_value", "discounted price must be greater than zero")
	}
	d.DiscountedPrice = price
	d.ComputedFrom = entry.Price
	return nil
}

func validateWindow(d Discount) error {
	if d.EndsAt != nil && !d.EndsAt.After(d.StartsAt) {
		return shared.NewValidationError("ends_at", "must be after starts_at")
	}
	return nil
}

// ensureSingleActive rejects d when another discount on the same entry is enabled and
// not yet expired.
func (s *Service) ensureSingleActive(ctx context.Context, vendorID int64, d Discount, now time.Time) error {
	if !d.IsActive {
		return nil
	}
	active := true
	views, err := s.store.FetchDiscounts(ctx, vendorID, Filter{IsActive: &active})
	if err != nil {
		return fmt.Errorf("discounts: list active: %w", err)
	}
	for _, other := range views {
		if other.ID == d.ID || other.VendorInventoryEntryID != d.VendorInventoryEntryID || !other.IsActive {
			continue
		}
		if other.StatusAt(now) != StatusExpired {
			return shared.NewValidationError("vendor_inventory_entry_id",
				fmt.Sprintf("entry already has an enabled discount (id %d)", other.ID))
		}
	}
	return nil
}

func (s *Service) record(ctx context.Context, vendorID int64, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	sess, _ := shared.VendorFromContext(ctx)
	_ = s.audit.Record(ctx, shared.AuditLog{
		VendorID: vendorID,
		ActorID:  sess.ActorID,
		Action:   action,
		Entity:   "discount",
		EntityID: fmt.Sprint(id),
		Meta:     meta,
	})
}
