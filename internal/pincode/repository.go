package pincode

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/storefront/internal/shared"
)

// Repository stores pincodes in vendor_pincodes, one row per vendor.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetPincode implements Store.
func (r *Repository) GetPincode(ctx context.Context, vendorID int64) (Pincode, error) {
	p := Pincode{VendorID: vendorID}
	err := r.pool.QueryRow(ctx, `SELECT code, updated_at FROM vendor_pincodes WHERE vendor_id = $1`, vendorID).
		Scan(&p.Code, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Pincode{}, shared.ErrNotFound
	}
	if err != nil {
		return Pincode{}, shared.NewTransportError("get pincode", err)
	}
	return p, nil
}

// UpsertPincode implements Store.
func (r *Repository) UpsertPincode(ctx context.Context, vendorID int64, code string) (Pincode, error) {
	p := Pincode{VendorID: vendorID}
	err := r.pool.QueryRow(ctx, `INSERT INTO vendor_pincodes (vendor_id, code, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (vendor_id) DO UPDATE SET code = EXCLUDED.code, updated_at = NOW()
RETURNING code, updated_at`, vendorID, code).Scan(&p.Code, &p.UpdatedAt)
	if err != nil {
		return Pincode{}, shared.NewTransportError("upsert pincode", err)
	}
	return p, nil
}

// DeletePincode implements Store. A missing row is reported as shared.ErrNotFound.
func (r *Repository) DeletePincode(ctx context.Context, vendorID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM vendor_pincodes WHERE vendor_id = $1`, vendorID)
	if err != nil {
		return shared.NewTransportError("delete pincode", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
