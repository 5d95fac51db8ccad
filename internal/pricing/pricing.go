// Package pricing holds the money rules shared by discounts and inventory:
// discounted price computation, the fixed rounding rule, and display formatting.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/storefront/internal/shared"
)

// DiscountType enumerates supported discount kinds.
type DiscountType string

const (
	// DiscountPercentage reduces the price by a percentage of the base price.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFlat reduces the price by a fixed amount.
	DiscountFlat DiscountType = "flat"
)

// Valid reports whether the type is known.
func (t DiscountType) Valid() bool {
	return t == DiscountPercentage || t == DiscountFlat
}

// Scale is the number of decimal places every persisted or displayed price carries.
const Scale int32 = 2

var hundred = decimal.NewFromInt(100)

// Round applies the single rounding rule: half away from zero to two places.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(Scale)
}

// DiscountAmount returns the unrounded amount taken off base.
func DiscountAmount(base decimal.Decimal, typ DiscountType, value decimal.Decimal) decimal.Decimal {
	if typ == DiscountPercentage {
		return base.Mul(value).Div(hundred)
	}
	return value
}

// RawDiscountedPrice is base minus the discount amount with no rounding and no floor.
// Validation inspects this value so a flat discount above the base price is rejected
// instead of being shown as a free product.
func RawDiscountedPrice(base decimal.Decimal, typ DiscountType, value decimal.Decimal) decimal.Decimal {
	return base.Sub(DiscountAmount(base, typ, value))
}

// ValidateDiscount checks base, type and value against the discount rules.
func ValidateDiscount(base decimal.Decimal, typ DiscountType, value decimal.Decimal) *shared.ValidationError {
	v := &shared.ValidationError{}
	if !base.IsPositive() {
		v.Add("base_price", "must be greater than zero")
	}
	if !typ.Valid() {
		v.Add("discount_type", fmt.Sprintf("must be %q or %q", DiscountPercentage, DiscountFlat))
		return v
	}
	if !value.IsPositive() {
		v.Add("discount_value", "must be greater than zero")
		return v
	}
	switch typ {
	case DiscountPercentage:
		if value.GreaterThan(hundred) {
			v.Add("discount_value", "percentage must not exceed 100")
		}
	case DiscountFlat:
		if base.IsPositive() && value.GreaterThanOrEqual(base) {
			v.Add("discount_value", "flat discount must be less than the base price")
		}
	}
	if !v.HasErrors() && !Round(RawDiscountedPrice(base, typ, value)).IsPositive() && typ == DiscountFlat {
		v.Add("discount_value", "discounted price must be greater than zero")
	}
	return v
}

// ComputeDiscountedPrice validates the inputs and returns the rounded discounted price.
func ComputeDiscountedPrice(base decimal.Decimal, typ DiscountType, value decimal.Decimal) (decimal.Decimal, error) {
	if err := ValidateDiscount(base, typ, value).OrNil(); err != nil {
		return decimal.Zero, err
	}
	return Round(RawDiscountedPrice(base, typ, value)), nil
}

// DisplayPrice is the customer-facing form of a possibly invalid raw price: rounded and
// floored at zero.
func DisplayPrice(raw decimal.Decimal) decimal.Decimal {
	rounded := Round(raw)
	if rounded.IsNegative() {
		return decimal.Zero
	}
	return rounded
}
