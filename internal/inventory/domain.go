package inventory

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Entry is a vendor's priced, stocked instance of a catalog item.
type Entry struct {
	ID                int64           `json:"id"`
	VendorID          int64           `json:"vendor_id"`
	CatalogItemID     int64           `json:"catalog_item_id"`
	Price             decimal.Decimal `json:"price"`
	MRP               decimal.Decimal `json:"mrp"`
	StockQuantity     decimal.Decimal `json:"stock_quantity"`
	IsActive          bool            `json:"is_active"`
	DeliverySupported bool            `json:"delivery_supported"`
	RemovedAt         *time.Time      `json:"removed_at,omitempty"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Removed reports whether the entry reached its terminal state.
func (e Entry) Removed() bool { return e.RemovedAt != nil }

// NewEntry is one row of an onboarding batch.
type NewEntry struct {
	CatalogItemID     int64
	Price             decimal.Decimal
	MRP               decimal.Decimal
	StockQuantity     decimal.Decimal
	DeliverySupported bool
}

// Patch is a partial edit of an entry. Nil fields are left unchanged.
type Patch struct {
	Price             *decimal.Decimal `json:"price,omitempty"`
	MRP               *decimal.Decimal `json:"mrp,omitempty"`
	StockQuantity     *decimal.Decimal `json:"stock_quantity,omitempty"`
	DeliverySupported *bool            `json:"delivery_supported,omitempty"`
	IsActive          *bool            `json:"is_active,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Price == nil && p.MRP == nil && p.StockQuantity == nil && p.DeliverySupported == nil && p.IsActive == nil
}

// Apply returns e with the patch merged on top.
func (p Patch) Apply(e Entry) Entry {
	if p.Price != nil {
		e.Price = *p.Price
	}
	if p.MRP != nil {
		e.MRP = *p.MRP
	}
	if p.StockQuantity != nil {
		e.StockQuantity = *p.StockQuantity
	}
	if p.DeliverySupported != nil {
		e.DeliverySupported = *p.DeliverySupported
	}
	if p.IsActive != nil {
		e.IsActive = *p.IsActive
	}
	return e
}

// ItemError reports why a catalog item was not onboarded.
type ItemError struct {
	CatalogItemID int64  `json:"catalog_item_id"`
	Reason        string `json:"reason"`
}

// BatchOutcome is what the store reports for a batch create.
type BatchOutcome struct {
	Success []Entry
	Errors  []ItemError
}

// BatchResult is the outcome of SubmitBatch.
type BatchResult struct {
	BatchRef string      `json:"batch_ref"`
	Created  []Entry     `json:"created"`
	Rejected []ItemError `json:"rejected"`
}

// StockLevel is the on-hand figure for one catalog item.
type StockLevel struct {
	Current decimal.Decimal `json:"current"`
	Unit    string          `json:"unit"`
}

// Rejection reasons.
const (
	ReasonAlreadyInInventory = "already in inventory"
	ReasonInactiveItem       = "catalog item is inactive"
	ReasonUnknownItem        = "catalog item does not exist"
)

// ErrUnknownField is returned by UpdateDraftConfig for a field name it does not know.
var ErrUnknownField = errors.New("inventory: unknown draft field")

// ErrFieldType is returned by UpdateDraftConfig when the value type does not match the field.
var ErrFieldType = errors.New("inventory: draft value has wrong type")
