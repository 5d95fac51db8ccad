// Package pincode manages the single delivery pincode of a vendor.
package pincode

import (
	"context"
	"time"

	"github.com/odyssey-erp/storefront/internal/shared"
)

// Pincode is the delivery area a vendor serves.
type Pincode struct {
	VendorID  int64     `json:"vendor_id"`
	Code      string    `json:"code"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists vendor pincodes.
type Store interface {
	GetPincode(ctx context.Context, vendorID int64) (Pincode, error)
	UpsertPincode(ctx context.Context, vendorID int64, code string) (Pincode, error)
	DeletePincode(ctx context.Context, vendorID int64) error
}

// Validate checks code is six digits without a leading zero.
func Validate(code string) error {
	if len(code) != 6 {
		return shared.NewValidationError("code", "must be exactly 6 digits")
	}
	for i, c := range code {
		if c < '0' || c > '9' {
			return shared.NewValidationError("code", "must be exactly 6 digits")
		}
		if i == 0 && c == '0' {
			return shared.NewValidationError("code", "must not start with 0")
		}
	}
	return nil
}
