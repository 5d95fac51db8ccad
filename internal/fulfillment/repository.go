package fulfillment

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/storefront/internal/shared"
)

// OrderRepository reads customer orders from PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository constructs OrderRepository.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// FetchOrders implements OrderSource. One-time orders match on their delivery date;
// recurring orders match while their subscription window covers the day and the
// cadence falls on it.
func (r *OrderRepository) FetchOrders(ctx context.Context, vendorID int64, forDate time.Time, filter OrderFilter) ([]Order, error) {
	var kind any
	if filter.Kind != "" {
		kind = string(filter.Kind)
	}
	var productIDs any
	if len(filter.ProductIDs) > 0 {
		productIDs = filter.ProductIDs
	}
	rows, err := r.pool.Query(ctx, `SELECT o.customer_id, o.customer_name, o.address, o.catalog_item_id,
    o.quantity, o.kind, COALESCE(o.frequency, ''), COALESCE(o.starts_on, $2::date)
FROM customer_orders o
WHERE o.vendor_id = $1
  AND o.cancelled_at IS NULL
  AND (
    (o.kind = 'one-time' AND o.delivery_date = $2::date)
    OR (o.kind = 'recurring' AND o.starts_on <= $2::date AND (o.ends_on IS NULL OR o.ends_on >= $2::date))
  )
  AND ($3::text IS NULL OR o.kind = $3)
  AND ($4::bigint[] IS NULL OR o.catalog_item_id = ANY($4))
ORDER BY o.catalog_item_id, o.customer_id`, vendorID, forDate, kind, productIDs)
	if err != nil {
		return nil, shared.NewTransportError("fetch orders", err)
	}
	defer rows.Close()
	orders := []Order{}
	for rows.Next() {
		var (
			o        Order
			startsOn time.Time
		)
		if err := rows.Scan(&o.CustomerID, &o.CustomerName, &o.Address, &o.ProductRef, &o.Quantity, &o.Kind, &o.Frequency, &startsOn); err != nil {
			return nil, shared.NewTransportError("scan order", err)
		}
		if o.Kind == KindRecurring && !o.Frequency.DueOn(startsOn, forDate) {
			continue
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.NewTransportError("fetch orders", err)
	}
	return orders, nil
}
