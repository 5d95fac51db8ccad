package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/storefront/internal/catalog"
	"github.com/odyssey-erp/storefront/internal/discounts"
	"github.com/odyssey-erp/storefront/internal/fulfillment"
	"github.com/odyssey-erp/storefront/internal/inventory"
	"github.com/odyssey-erp/storefront/internal/observability"
	"github.com/odyssey-erp/storefront/internal/pincode"
	"github.com/odyssey-erp/storefront/internal/platform/cache"
	"github.com/odyssey-erp/storefront/internal/pricing"
	"github.com/odyssey-erp/storefront/internal/shared"
	"github.com/odyssey-erp/storefront/report"
)

// Services holds the domain services shared by the HTTP server and the worker.
type Services struct {
	Catalog       *catalog.Service
	Inventory     *inventory.Service
	InventoryRepo *inventory.Repository
	Discounts     *discounts.Service
	Fulfillment   *fulfillment.Service
	Pincode       *pincode.Service
	Formatter     *pricing.Formatter
	PDF           *report.Client
}

// NewServices wires repositories, caches and services. redisClient may be nil,
// which disables caching.
func NewServices(cfg *Config, pool *pgxpool.Pool, redisClient *redis.Client, metrics *observability.Metrics) (*Services, error) {
	formatter, err := pricing.NewFormatter(cfg.PricingCurrency, cfg.PricingLocale)
	if err != nil {
		return nil, fmt.Errorf("app: price formatter: %w", err)
	}
	policy, err := cfg.StockPolicy()
	if err != nil {
		return nil, err
	}

	var catalogCache, planCache *cache.JSONCache
	if redisClient != nil {
		catalogCache = cache.NewJSONCache(redisClient, "storefront:catalog", cfg.CatalogCacheTTL)
		planCache = cache.NewJSONCache(redisClient, "storefront:packaging", cfg.PackagingCacheTTL)
	}

	audit := shared.NewAuditLogger(pool)
	idempotency := shared.NewIdempotencyStore(pool)

	catalogService := catalog.NewService(catalog.NewRepository(pool), catalogCache)
	inventoryRepo := inventory.NewRepository(pool)
	inventoryService := inventory.NewService(inventoryRepo, catalogService, audit, idempotency, metrics)
	discountService := discounts.NewService(discounts.NewRepository(pool), inventoryService, discounts.ClockFunc(time.Now), audit)
	fulfillmentService := fulfillment.NewService(
		fulfillment.NewOrderRepository(pool),
		fulfillment.NewInventoryAdapter(inventoryService),
		catalogService,
		fulfillment.ServiceConfig{Policy: &policy, Cache: planCache, Metrics: metrics},
	)
	inventoryService.UsePlanInvalidator(fulfillmentService)

	var pdf *report.Client
	if cfg.GotenbergURL != "" {
		pdf = report.NewClient(cfg.GotenbergURL, cfg.AppWriteTimeout)
	}

	return &Services{
		Catalog:       catalogService,
		Inventory:     inventoryService,
		InventoryRepo: inventoryRepo,
		Discounts:     discountService,
		Fulfillment:   fulfillmentService,
		Pincode:       pincode.NewService(pincode.NewRepository(pool), audit),
		Formatter:     formatter,
		PDF:           pdf,
	}, nil
}

// Handlers builds the HTTP handlers of every module.
func (s *Services) Handlers(logger *slog.Logger) RouterParams {
	var pdf fulfillment.PDFRenderer
	if s.PDF != nil {
		pdf = s.PDF
	}
	return RouterParams{
		Logger:             logger,
		CatalogHandler:     catalog.NewHandler(logger, s.Catalog),
		InventoryHandler:   inventory.NewHandler(logger, s.Inventory, s.Formatter),
		DiscountsHandler:   discounts.NewHandler(logger, s.Discounts, s.Formatter),
		FulfillmentHandler: fulfillment.NewHandler(logger, s.Fulfillment, pdf),
		PincodeHandler:     pincode.NewHandler(logger, s.Pincode),
	}
}
