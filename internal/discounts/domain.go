package discounts

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/storefront/internal/pricing"
)

// Status is the lifecycle state of a discount at an instant. It is never stored.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusInactive  Status = "inactive"
)

// Classify derives the status from the active flag and the time window.
func Classify(isActive bool, startsAt time.Time, endsAt *time.Time, now time.Time) Status {
	switch {
	case !isActive:
		return StatusInactive
	case now.Before(startsAt):
		return StatusScheduled
	case endsAt != nil && now.After(*endsAt):
		return StatusExpired
	default:
		return StatusActive
	}
}

// Discount is a time-boxed markdown on one inventory entry.
// DiscountedPrice is cached together with the base price it was computed from.
type Discount struct {
	ID                     int64                `json:"id"`
	VendorID               int64                `json:"vendor_id"`
	VendorInventoryEntryID int64                `json:"vendor_inventory_entry_id"`
	DiscountType           pricing.DiscountType `json:"discount_type"`
	DiscountValue          decimal.Decimal      `json:"discount_value"`
	DiscountedPrice        decimal.Decimal      `json:"discounted_price"`
	ComputedFrom           decimal.Decimal      `json:"-"`
	CardTitle              string               `json:"card_title"`
	Description            string               `json:"description"`
	Terms                  string               `json:"terms"`
	StartsAt               time.Time            `json:"starts_at"`
	EndsAt                 *time.Time           `json:"ends_at,omitempty"`
	IsActive               bool                 `json:"is_active"`
	CreatedAt              time.Time            `json:"created_at"`
	UpdatedAt              time.Time            `json:"updated_at"`
}

// StatusAt classifies d at now.
func (d Discount) StatusAt(now time.Time) Status {
	return Classify(d.IsActive, d.StartsAt, d.EndsAt, now)
}

// Spec describes a discount to create.
type Spec struct {
	VendorInventoryEntryID int64
	DiscountType           pricing.DiscountType
	DiscountValue          decimal.Decimal
	CardTitle              string
	Description            string
	Terms                  string
	StartsAt               time.Time
	EndsAt                 *time.Time
	IsActive               bool
}

// Patch is a partial update. Nil fields are left unchanged; ClearEndsAt makes the
// discount open-ended.
type Patch struct {
	DiscountType  *pricing.DiscountType
	DiscountValue *decimal.Decimal
	CardTitle     *string
	Description   *string
	Terms         *string
	StartsAt      *time.Time
	EndsAt        *time.Time
	ClearEndsAt   bool
	IsActive      *bool
}

// TouchesPricing reports whether the patch changes a pricing input.
func (p Patch) TouchesPricing() bool {
	return p.DiscountType != nil || p.DiscountValue != nil
}

// Apply returns d with the patch merged on top. DiscountedPrice is not touched.
func (p Patch) Apply(d Discount) Discount {
	if p.DiscountType != nil {
		d.DiscountType = *p.DiscountType
	}
	if p.DiscountValue != nil {
		d.DiscountValue = *p.DiscountValue
	}
	if p.CardTitle != nil {
		d.CardTitle = *p.CardTitle
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.Terms != nil {
		d.Terms = *p.Terms
	}
	if p.StartsAt != nil {
		d.StartsAt = *p.StartsAt
	}
	if p.ClearEndsAt {
		d.EndsAt = nil
	} else if p.EndsAt != nil {
		end := *p.EndsAt
		d.EndsAt = &end
	}
	if p.IsActive != nil {
		d.IsActive = *p.IsActive
	}
	return d
}

// Filter narrows ListDiscounts.
type Filter struct {
	IsActive *bool
}

// View is a discount joined with its entry's current base price and product data.
// Status and EffectivePrice are derived at read time.
type View struct {
	Discount
	BasePrice      decimal.Decimal `json:"base_price"`
	MRP            decimal.Decimal `json:"mrp"`
	ProductName    string          `json:"product_name"`
	Status         Status          `json:"status"`
	EffectivePrice decimal.Decimal `json:"effective_price"`
}

// EffectivePrice is the customer-facing price of base under discounts at now. Only active
// discounts apply; each is recomputed from base, and the lowest valid result wins.
func EffectivePrice(base decimal.Decimal, discounts []Discount, now time.Time) decimal.Decimal {
	best := pricing.Round(base)
	for _, d := range discounts {
		if d.StatusAt(now) != StatusActive {
			continue
		}
		price, err := pricing.ComputeDiscountedPrice(base, d.DiscountType, d.DiscountValue)
		if err != nil {
			continue
		}
		if price.LessThan(best) {
			best = price
		}
	}
	return best
}
