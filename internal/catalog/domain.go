package catalog

import "context"

// Item is shared catalog reference data. It is read-only to vendors.
type Item struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Brand         string `json:"brand"`
	Category      string `json:"category"`
	UnitOfMeasure string `json:"unit_of_measure"`
	IsActive      bool   `json:"is_active"`
}

// Store is the external catalog service.
type Store interface {
	FetchCatalogItems(ctx context.Context) ([]Item, error)
}
