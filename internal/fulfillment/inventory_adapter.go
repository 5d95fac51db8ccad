package fulfillment

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/storefront/internal/inventory"
)

// InventoryStock is the subset of inventory.Service the adapter needs.
type InventoryStock interface {
	StockLevels(ctx context.Context, vendorID int64) (map[int64]inventory.StockLevel, error)
}

// InventoryAdapter adapts the inventory service to StockSource.
type InventoryAdapter struct {
	service InventoryStock
}

// NewInventoryAdapter creates a new inventory adapter.
func NewInventoryAdapter(service InventoryStock) *InventoryAdapter {
	return &InventoryAdapter{service: service}
}

// StockLevels implements StockSource.
func (a *InventoryAdapter) StockLevels(ctx context.Context, vendorID int64) (map[int64]StockLevel, error) {
	if a.service == nil {
		return nil, fmt.Errorf("inventory service not initialized")
	}
	levels, err := a.service.StockLevels(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]StockLevel, len(levels))
	for id, l := range levels {
		out[id] = StockLevel{Current: l.Current, Unit: l.Unit}
	}
	return out, nil
}
