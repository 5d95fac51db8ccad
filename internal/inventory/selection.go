package inventory

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/storefront/internal/shared"
)

// Selection is the set of catalog item ids chosen for onboarding.
type Selection map[int64]struct{}

// NewSelection builds a selection from ids.
func NewSelection(ids ...int64) Selection {
	sel := make(Selection, len(ids))
	for _, id := range ids {
		sel[id] = struct{}{}
	}
	return sel
}

// Has reports whether id is selected.
func (s Selection) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the selected ids in ascending order.
func (s Selection) IDs() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// DraftConfig is the per-item configuration entered before submission.
type DraftConfig struct {
	Price             decimal.Decimal `json:"price"`
	MRP               decimal.Decimal `json:"mrp"`
	StockQuantity     decimal.Decimal `json:"stock_quantity"`
	DeliverySupported bool            `json:"delivery_supported"`
}

// Drafts maps a catalog item id to its draft configuration.
type Drafts map[int64]DraftConfig

// DraftField names an editable draft field.
type DraftField string

const (
	FieldPrice             DraftField = "price"
	FieldMRP               DraftField = "mrp"
	FieldStockQuantity     DraftField = "stock_quantity"
	FieldDeliverySupported DraftField = "delivery_supported"
)

func (s Selection) clone() Selection {
	out := make(Selection, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

func (d Drafts) clone() Drafts {
	out := make(Drafts, len(d))
	for id, cfg := range d {
		out[id] = cfg
	}
	return out
}

// ToggleSelection adds itemID with a zero draft, or removes it together with its draft.
// The inputs are not modified.
func ToggleSelection(sel Selection, drafts Drafts, itemID int64) (Selection, Drafts) {
	nextSel, nextDrafts := sel.clone(), drafts.clone()
	if nextSel.Has(itemID) {
		delete(nextSel, itemID)
		delete(nextDrafts, itemID)
		return nextSel, nextDrafts
	}
	nextSel[itemID] = struct{}{}
	nextDrafts[itemID] = DraftConfig{}
	return nextSel, nextDrafts
}

// UpdateDraftConfig merges one field value into the draft of itemID. Values are not
// validated here; decimal fields take decimal.Decimal and the delivery flag takes bool.
func UpdateDraftConfig(drafts Drafts, itemID int64, field DraftField, value any) (Drafts, error) {
	cfg := drafts[itemID]
	switch field {
	case FieldPrice, FieldMRP, FieldStockQuantity:
		v, ok := value.(decimal.Decimal)
		if !ok {
			return drafts, fmt.Errorf("%w: %s wants decimal, got %T", ErrFieldType, field, value)
		}
		switch field {
		case FieldPrice:
			cfg.Price = v
		case FieldMRP:
			cfg.MRP = v
		default:
			cfg.StockQuantity = v
		}
	case FieldDeliverySupported:
		v, ok := value.(bool)
		if !ok {
			return drafts, fmt.Errorf("%w: %s wants bool, got %T", ErrFieldType, field, value)
		}
		cfg.DeliverySupported = v
	default:
		return drafts, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	next := drafts.clone()
	next[itemID] = cfg
	return next, nil
}

// checkPricing applies the price, MRP and stock invariants of an entry. Onboarding
// requires stock above zero; edits only require it to be non-negative.
func checkPricing(v *shared.ValidationError, prefix string, price, mrp, stock decimal.Decimal, allowZeroStock bool) {
	field := func(name string) string {
		if prefix == "" {
			return name
		}
		return prefix + "." + name
	}
	if !price.IsPositive() {
		v.Add(field("price"), "must be greater than zero")
	}
	if !mrp.IsPositive() {
		v.Add(field("mrp"), "must be greater than zero")
	}
	if allowZeroStock {
		if stock.IsNegative() {
			v.Add(field("stock_quantity"), "must not be negative")
		}
	} else if !stock.IsPositive() {
		v.Add(field("stock_quantity"), "must be greater than zero")
	}
	if price.IsPositive() && mrp.IsPositive() && mrp.LessThan(price) {
		v.Add(field("mrp"), "must be greater than or equal to price")
	}
}

// ValidateBatch reports every invalid field of every selected item. Field paths look
// like items[12].price.
func ValidateBatch(sel Selection, drafts Drafts) *shared.ValidationError {
	v := &shared.ValidationError{}
	if len(sel) == 0 {
		v.Add("items", "select at least one catalog item")
		return v
	}
	for _, id := range sel.IDs() {
		cfg := drafts[id]
		checkPricing(v, fmt.Sprintf("items[%d]", id), cfg.Price, cfg.MRP, cfg.StockQuantity, false)
	}
	return v
}

// IsSubmittable reports whether every selected item is valid. One bad item blocks the batch.
func IsSubmittable(sel Selection, drafts Drafts) bool {
	return !ValidateBatch(sel, drafts).HasErrors()
}

// ValidateEntry checks an entry against the invariants that hold after an edit.
func ValidateEntry(e Entry) *shared.ValidationError {
	v := &shared.ValidationError{}
	checkPricing(v, "", e.Price, e.MRP, e.StockQuantity, true)
	return v
}
