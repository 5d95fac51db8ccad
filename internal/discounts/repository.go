package discounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/storefront/internal/shared"
)

// Repository persists discounts in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const viewSelect = `SELECT d.id, e.vendor_id, d.vendor_inventory_entry_id, d.discount_type, d.discount_value,
    d.discounted_price, d.computed_from, d.card_title, d.description, d.terms, d.starts_at, d.ends_at,
    d.is_active, d.created_at, d.updated_at, e.price, e.mrp, c.name
FROM discounts d
JOIN vendor_inventory_entries e ON e.id = d.vendor_inventory_entry_id
JOIN catalog_items c ON c.id = e.catalog_item_id`

const discountColumns = `id, vendor_inventory_entry_id, discount_type, discount_value, discounted_price, computed_from,
    card_title, description, terms, starts_at, ends_at, is_active, created_at, updated_at`

func scanView(row pgx.Row) (View, error) {
	var v View
	err := row.Scan(&v.ID, &v.VendorID, &v.VendorInventoryEntryID, &v.DiscountType, &v.DiscountValue,
		&v.DiscountedPrice, &v.ComputedFrom, &v.CardTitle, &v.Description, &v.Terms, &v.StartsAt, &v.EndsAt,
		&v.IsActive, &v.CreatedAt, &v.UpdatedAt, &v.BasePrice, &v.MRP, &v.ProductName)
	return v, err
}

func scanDiscount(row pgx.Row, vendorID int64) (Discount, error) {
	d := Discount{VendorID: vendorID}
	err := row.Scan(&d.ID, &d.VendorInventoryEntryID, &d.DiscountType, &d.DiscountValue, &d.DiscountedPrice,
		&d.ComputedFrom, &d.CardTitle, &d.Description, &d.Terms, &d.StartsAt, &d.EndsAt, &d.IsActive,
		&d.CreatedAt, &d.UpdatedAt)
	return d, err
}

// FetchDiscounts implements Store.
func (r *Repository) FetchDiscounts(ctx context.Context, vendorID int64, filter Filter) ([]View, error) {
	rows, err := r.pool.Query(ctx, viewSelect+`
WHERE e.vendor_id = $1 AND ($2::boolean IS NULL OR d.is_active = $2)
ORDER BY d.id`, vendorID, filter.IsActive)
	if err != nil {
		return nil, shared.NewTransportError("fetch discounts", err)
	}
	defer rows.Close()
	views := []View{}
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, shared.NewTransportError("scan discount", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.NewTransportError("fetch discounts", err)
	}
	return views, nil
}

// GetDiscount implements Store.
func (r *Repository) GetDiscount(ctx context.Context, id int64) (View, error) {
	v, err := scanView(r.pool.QueryRow(ctx, viewSelect+` WHERE d.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return View{}, fmt.Errorf("discount %d: %w", id, shared.ErrNotFound)
		}
		return View{}, shared.NewTransportError("get discount", err)
	}
	return v, nil
}

// CreateDiscount implements Store.
func (r *Repository) CreateDiscount(ctx context.Context, d Discount) (Discount, error) {
	created, err := scanDiscount(r.pool.QueryRow(ctx, `INSERT INTO discounts
    (vendor_inventory_entry_id, discount_type, discount_value, discounted_price, computed_from,
     card_title, description, terms, starts_at, ends_at, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
RETURNING `+discountColumns,
		d.VendorInventoryEntryID, string(d.DiscountType), d.DiscountValue, d.DiscountedPrice, d.ComputedFrom,
		d.CardTitle, d.Description, d.Terms, d.StartsAt, d.EndsAt, d.IsActive), d.VendorID)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return Discount{}, fmt.Errorf("create discount: %w", shared.ErrDuplicate)
		}
		return Discount{}, shared.NewTransportError("create discount", err)
	}
	return created, nil
}

// UpdateDiscount implements Store.
func (r *Repository) UpdateDiscount(ctx context.Context, d Discount) (Discount, error) {
	updated, err := scanDiscount(r.pool.QueryRow(ctx, `UPDATE discounts SET
    discount_type = $2, discount_value = $3, discounted_price = $4, computed_from = $5,
    card_title = $6, description = $7, terms = $8, starts_at = $9, ends_at = $10,
    is_active = $11, updated_at = NOW()
WHERE id = $1
RETURNING `+discountColumns,
		d.ID, string(d.DiscountType), d.DiscountValue, d.DiscountedPrice, d.ComputedFrom,
		d.CardTitle, d.Description, d.Terms, d.StartsAt, d.EndsAt, d.IsActive), d.VendorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Discount{}, fmt.Errorf("discount %d: %w", d.ID, shared.ErrNotFound)
		}
		return Discount{}, shared.NewTransportError("update discount", err)
	}
	return updated, nil
}

// DeleteDiscount implements Store.
func (r *Repository) DeleteDiscount(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM discounts WHERE id = $1`, id)
	if err != nil {
		return shared.NewTransportError("delete discount", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("discount %d: %w", id, shared.ErrNotFound)
	}
	return nil
}
