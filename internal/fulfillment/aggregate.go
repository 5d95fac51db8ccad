package fulfillment

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/storefront/internal/shared"
)

// Classify grades current stock against the required and one-time quantities.
func (p StockPolicy) Classify(current, required, oneTime decimal.Decimal) StockStatus {
	switch {
	case current.GreaterThanOrEqual(required):
		return StatusSufficient
	case !current.IsPositive():
		return StatusOutOfStock
	case p.OneTimeShortfallIsOutOfStock && current.LessThan(oneTime):
		return StatusOutOfStock
	case current.LessThan(required.Mul(p.MinCoverage)):
		return StatusOutOfStock
	default:
		return StatusLow
	}
}

// ValidateOrders reports every order with a non-positive quantity, an unknown kind,
// or a frequency that does not match its kind.
func ValidateOrders(orders []Order) *shared.ValidationError {
	v := &shared.ValidationError{}
	for i, o := range orders {
		prefix := fmt.Sprintf("orders[%d]", i)
		if !o.Quantity.IsPositive() {
			v.Add(prefix+".quantity", "must be greater than zero")
		}
		switch o.Kind {
		case KindOneTime:
			if o.Frequency != "" {
				v.Add(prefix+".frequency", "must be empty for one-time orders")
			}
		case KindRecurring:
			if !o.Frequency.Valid() {
				v.Add(prefix+".frequency", "recurring orders need daily, alternate-days or weekly")
			}
		default:
			v.Add(prefix+".kind", fmt.Sprintf("must be %q or %q", KindOneTime, KindRecurring))
		}
	}
	return v
}

type bucketAcc struct {
	quantity  decimal.Decimal
	customers map[string]*CustomerDemand
}

func (b *bucketAcc) add(o Order) {
	if b.customers == nil {
		b.customers = map[string]*CustomerDemand{}
	}
	b.quantity = b.quantity.Add(o.Quantity)
	c, ok := b.customers[o.CustomerID]
	if !ok {
		c = &CustomerDemand{CustomerID: o.CustomerID, CustomerName: o.CustomerName, Address: o.Address}
		b.customers[o.CustomerID] = c
	}
	// Smallest non-empty name and address win.
	if c.CustomerName == "" || (o.CustomerName != "" && o.CustomerName < c.CustomerName) {
		c.CustomerName = o.CustomerName
	}
	if c.Address == "" || (o.Address != "" && o.Address < c.Address) {
		c.Address = o.Address
	}
	c.Quantity = c.Quantity.Add(o.Quantity)
	c.Orders++
	if o.Frequency != "" && !hasFrequency(c.Frequencies, o.Frequency) {
		c.Frequencies = append(c.Frequencies, o.Frequency)
		sort.Slice(c.Frequencies, func(i, j int) bool { return c.Frequencies[i] < c.Frequencies[j] })
	}
}

func (b *bucketAcc) bucket() Bucket {
	out := Bucket{CustomerCount: len(b.customers), Quantity: b.quantity, Customers: make([]CustomerDemand, 0, len(b.customers))}
	for _, c := range b.customers {
		out.Customers = append(out.Customers, *c)
	}
	sort.Slice(out.Customers, func(i, j int) bool { return out.Customers[i].CustomerID < out.Customers[j].CustomerID })
	return out
}

func hasFrequency(list []Frequency, f Frequency) bool {
	for _, x := range list {
		if x == f {
			return true
		}
	}
	return false
}

// Aggregate groups orders per product and grades each product's stock. Products
// missing from stock are reported with zero current stock and out of stock. The
// result does not depend on the order of orders.
func Aggregate(orders []Order, stock map[int64]StockLevel, opts Options) []PackagingRequirement {
	policy := DefaultStockPolicy()
	if opts.Policy != nil {
		policy = *opts.Policy
	}

	type group struct {
		oneTime, recurring bucketAcc
	}
	groups := map[int64]*group{}
	for _, o := range orders {
		g, ok := groups[o.ProductRef]
		if !ok {
			g = &group{}
			groups[o.ProductRef] = g
		}
		if o.Kind == KindRecurring {
			g.recurring.add(o)
		} else {
			g.oneTime.add(o)
		}
	}

	out := make([]PackagingRequirement, 0, len(groups))
	for productID, g := range groups {
		oneTime, recurring := g.oneTime.bucket(), g.recurring.bucket()
		required := oneTime.Quantity.Add(recurring.Quantity)
		level, tracked := stock[productID]
		current := level.Current
		if !tracked {
			current = decimal.Zero
		}
		status := policy.Classify(current, required, oneTime.Quantity)
		if !tracked {
			status = StatusOutOfStock
		}
		shortfall := required.Sub(current)
		if shortfall.IsNegative() {
			shortfall = decimal.Zero
		}
		out = append(out, PackagingRequirement{
			ProductID:     productID,
			TotalQuantity: required,
			Unit:          level.Unit,
			CurrentStock:  current,
			RequiredStock: required,
			Shortfall:     shortfall,
			StockStatus:   status,
			Untracked:     !tracked,
			OneTime:       oneTime,
			Recurring:     recurring,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	if opts.Less != nil {
		sort.SliceStable(out, func(i, j int) bool { return opts.Less(out[i], out[j]) })
	}
	return out
}

// Summarize counts requirements per status.
func Summarize(reqs []PackagingRequirement) Summary {
	var s Summary
	for _, r := range reqs {
		switch r.StockStatus {
		case StatusSufficient:
			s.Sufficient++
		case StatusLow:
			s.Low++
		case StatusOutOfStock:
			s.OutOfStock++
		}
	}
	return s
}

// ByCategoryThenName orders requirements for the packaging sheet.
func ByCategoryThenName(a, b PackagingRequirement) bool {
	if a.Category != b.Category {
		return a.Category < b.Category
	}
	return a.ProductName < b.ProductName
}
