package fulfillment

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderKind separates single purchases from standing orders.
type OrderKind string

const (
	KindOneTime   OrderKind = "one-time"
	KindRecurring OrderKind = "recurring"
)

// Frequency is the cadence of a recurring order.
type Frequency string

const (
	FrequencyDaily         Frequency = "daily"
	FrequencyAlternateDays Frequency = "alternate-days"
	FrequencyWeekly        Frequency = "weekly"
)

// Valid reports whether f is a known cadence.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyAlternateDays, FrequencyWeekly:
		return true
	}
	return false
}

// DueOn reports whether a subscription started on startsOn delivers on day. Unknown
// cadences are reported due so validation sees them.
func (f Frequency) DueOn(startsOn, day time.Time) bool {
	days := int(civilDate(day).Sub(civilDate(startsOn)).Hours() / 24)
	if days < 0 {
		return false
	}
	switch f {
	case FrequencyDaily:
		return true
	case FrequencyAlternateDays:
		return days%2 == 0
	case FrequencyWeekly:
		return days%7 == 0
	default:
		return true
	}
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Order is resolved customer demand for one product.
type Order struct {
	CustomerID   string          `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	Address      string          `json:"address"`
	ProductRef   int64           `json:"product_ref"`
	Quantity     decimal.Decimal `json:"quantity"`
	Kind         OrderKind       `json:"kind"`
	Frequency    Frequency       `json:"frequency,omitempty"`
}

// StockLevel is the on-hand stock of a product.
type StockLevel struct {
	Current decimal.Decimal `json:"current"`
	Unit    string          `json:"unit"`
}

// StockStatus grades on-hand stock against demand.
type StockStatus string

const (
	StatusSufficient StockStatus = "sufficient"
	StatusLow        StockStatus = "low"
	StatusOutOfStock StockStatus = "out-of-stock"
)

// CustomerDemand rolls up one customer's orders within a bucket.
type CustomerDemand struct {
	CustomerID   string          `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	Address      string          `json:"address"`
	Quantity     decimal.Decimal `json:"quantity"`
	Orders       int             `json:"orders"`
	Frequencies  []Frequency     `json:"frequencies,omitempty"`
}

// Bucket is the demand of one order kind for a product.
type Bucket struct {
	CustomerCount int              `json:"customer_count"`
	Quantity      decimal.Decimal  `json:"quantity"`
	Customers     []CustomerDemand `json:"customers"`
}

// PackagingRequirement is the derived demand for one product. It is never persisted.
type PackagingRequirement struct {
	ProductID     int64           `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Category      string          `json:"category"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	Unit          string          `json:"unit"`
	CurrentStock  decimal.Decimal `json:"current_stock"`
	RequiredStock decimal.Decimal `json:"required_stock"`
	Shortfall     decimal.Decimal `json:"shortfall"`
	StockStatus   StockStatus     `json:"stock_status"`
	Untracked     bool            `json:"untracked"`
	OneTime       Bucket          `json:"one_time"`
	Recurring     Bucket          `json:"recurring"`
}

// StockPolicy decides when a shortfall is low rather than out of stock.
type StockPolicy struct {
	// MinCoverage is the share of required stock that must be on hand for low.
	MinCoverage decimal.Decimal
	// OneTimeShortfallIsOutOfStock grades stock that cannot cover one-time demand
	// as out of stock.
	OneTimeShortfallIsOutOfStock bool
}

// DefaultStockPolicy covers half the demand and all one-time orders for low.
func DefaultStockPolicy() StockPolicy {
	return StockPolicy{MinCoverage: decimal.NewFromFloat(0.5), OneTimeShortfallIsOutOfStock: true}
}

// Options tunes Aggregate.
type Options struct {
	// Policy defaults to DefaultStockPolicy when nil.
	Policy *StockPolicy
	// Less orders the result. Ties, and a nil Less, fall back to ascending ProductID.
	Less func(a, b PackagingRequirement) bool
}

// OrderFilter narrows the orders fetched for a plan.
type OrderFilter struct {
	Kind       OrderKind `json:"kind,omitempty"`
	ProductIDs []int64   `json:"product_ids,omitempty"`
}

// Summary counts requirements per status.
type Summary struct {
	Sufficient int `json:"sufficient"`
	Low        int `json:"low"`
	OutOfStock int `json:"out_of_stock"`
}

// Plan is the packaging plan of a vendor for one day.
type Plan struct {
	VendorID     int64                  `json:"vendor_id"`
	Date         time.Time              `json:"date"`
	Requirements []PackagingRequirement `json:"requirements"`
	Summary      Summary                `json:"summary"`
}
