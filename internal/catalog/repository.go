package catalog

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/storefront/internal/shared"
)

// Repository reads catalog items from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FetchCatalogItems implements Store.
func (r *Repository) FetchCatalogItems(ctx context.Context) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, brand, category, unit_of_measure, is_active
FROM catalog_items
ORDER BY category, name, id`)
	if err != nil {
		return nil, shared.NewTransportError("fetch catalog items", err)
	}
	defer rows.Close()
	items := []Item{}
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Brand, &item.Category, &item.UnitOfMeasure, &item.IsActive); err != nil {
			return nil, shared.NewTransportError("scan catalog item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.NewTransportError("fetch catalog items", err)
	}
	return items, nil
}
