package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/storefront/internal/platform/db"
	"github.com/odyssey-erp/storefront/internal/shared"
)

// Repository persists vendor inventory in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const entryColumns = `id, vendor_id, catalog_item_id, price, mrp, stock_quantity, is_active, delivery_supported, removed_at, updated_at`

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.VendorID, &e.CatalogItemID, &e.Price, &e.MRP, &e.StockQuantity,
		&e.IsActive, &e.DeliverySupported, &e.RemovedAt, &e.UpdatedAt)
	return e, err
}

// FetchVendorInventory implements Store. Removed entries are excluded.
func (r *Repository) FetchVendorInventory(ctx context.Context, vendorID int64) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+entryColumns+`
FROM vendor_inventory_entries
WHERE vendor_id = $1 AND removed_at IS NULL
ORDER BY id`, vendorID)
	if err != nil {
		return nil, shared.NewTransportError("fetch vendor inventory", err)
	}
	defer rows.Close()
	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, shared.NewTransportError("scan inventory entry", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.NewTransportError("fetch vendor inventory", err)
	}
	return entries, nil
}

// CreateInventoryBatch inserts every item in one transaction. Each insert runs in a
// savepoint so a duplicate-key race rejects that item only.
func (r *Repository) CreateInventoryBatch(ctx context.Context, vendorID int64, items []NewEntry) (BatchOutcome, error) {
	var outcome BatchOutcome
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, item := range items {
			sp, err := tx.Begin(ctx)
			if err != nil {
				return err
			}
			entry, err := scanEntry(sp.QueryRow(ctx, `INSERT INTO vendor_inventory_entries
    (vendor_id, catalog_item_id, price, mrp, stock_quantity, is_active, delivery_supported, updated_at)
VALUES ($1, $2, $3, $4, $5, TRUE, $6, NOW())
RETURNING `+entryColumns, vendorID, item.CatalogItemID, item.Price, item.MRP, item.StockQuantity, item.DeliverySupported))
			if err != nil {
				_ = sp.Rollback(ctx)
				if shared.IsUniqueViolation(err) {
					outcome.Errors = append(outcome.Errors, ItemError{CatalogItemID: item.CatalogItemID, Reason: ReasonAlreadyInInventory})
					continue
				}
				return err
			}
			if err := sp.Commit(ctx); err != nil {
				return err
			}
			outcome.Success = append(outcome.Success, entry)
		}
		return nil
	})
	if err != nil {
		return BatchOutcome{}, shared.NewTransportError("create inventory batch", err)
	}
	return outcome, nil
}

// UpdateInventoryEntry implements Store.
func (r *Repository) UpdateInventoryEntry(ctx context.Context, id int64, patch Patch) (Entry, error) {
	entry, err := scanEntry(r.pool.QueryRow(ctx, `UPDATE vendor_inventory_entries SET
    price = COALESCE($2::numeric, price),
    mrp = COALESCE($3::numeric, mrp),
    stock_quantity = COALESCE($4::numeric, stock_quantity),
    delivery_supported = COALESCE($5::boolean, delivery_supported),
    is_active = COALESCE($6::boolean, is_active),
    updated_at = NOW()
WHERE id = $1 AND removed_at IS NULL
RETURNING `+entryColumns, id, patch.Price, patch.MRP, patch.StockQuantity, patch.DeliverySupported, patch.IsActive))
	if err != nil {
		return Entry{}, classify("update inventory entry", id, err)
	}
	return entry, nil
}

// DeleteInventoryEntry marks the entry removed. Removal is terminal.
func (r *Repository) DeleteInventoryEntry(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE vendor_inventory_entries
SET removed_at = NOW(), is_active = FALSE, updated_at = NOW()
WHERE id = $1 AND removed_at IS NULL`, id)
	if err != nil {
		return shared.NewTransportError("delete inventory entry", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("inventory entry %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

// GetInventoryEntry implements Store.
func (r *Repository) GetInventoryEntry(ctx context.Context, id int64) (Entry, error) {
	entry, err := scanEntry(r.pool.QueryRow(ctx, `SELECT `+entryColumns+`
FROM vendor_inventory_entries WHERE id = $1`, id))
	if err != nil {
		return Entry{}, classify("get inventory entry", id, err)
	}
	return entry, nil
}

func classify(op string, id int64, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("inventory entry %d: %w", id, shared.ErrNotFound)
	}
	if shared.IsUniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, shared.ErrDuplicate)
	}
	return shared.NewTransportError(op, err)
}

// ListVendorIDs returns every vendor holding at least one live entry.
func (r *Repository) ListVendorIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT vendor_id FROM vendor_inventory_entries WHERE removed_at IS NULL ORDER BY vendor_id`)
	if err != nil {
		return nil, shared.NewTransportError("list vendors", err)
	}
	defer rows.Close()
	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, shared.NewTransportError("scan vendor id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.NewTransportError("list vendors", err)
	}
	return ids, nil
}
