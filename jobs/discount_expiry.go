package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/storefront/internal/discounts"
	jobmetrics "github.com/odyssey-erp/storefront/internal/jobs"
)

const defaultExpiryWindow = 72 * time.Hour

// ExpiryScanner finds active discounts ending within a window.
type ExpiryScanner interface {
	ExpiringWithin(ctx context.Context, vendorID int64, window time.Duration) ([]discounts.View, error)
}

// DiscountExpiryJob logs discounts that are about to end so vendors can renew them.
type DiscountExpiryJob struct {
	Discounts ExpiryScanner
	Vendors   VendorLister
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewDiscountExpiryJob wires dependencies for the expiry scan handler.
func NewDiscountExpiryJob(scanner ExpiryScanner, vendors VendorLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *DiscountExpiryJob {
	return &DiscountExpiryJob{Discounts: scanner, Vendors: vendors, Logger: logger, Metrics: metrics}
}

// Handle processes TaskDiscountExpiryScan tasks.
func (j *DiscountExpiryJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Discounts == nil || j.Vendors == nil {
		return errors.New("discount expiry: handler not configured")
	}
	var payload DiscountExpiryPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("discount expiry: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Window <= 0 {
		payload.Window = defaultExpiryWindow
	}

	tracker := j.metrics().Track(TaskDiscountExpiryScan)
	defer func() { resultErr = tracker.End(resultErr) }()

	logger := j.logger().With(slog.Duration("window", payload.Window))
	vendors, err := j.Vendors.ListVendorIDs(ctx)
	if err != nil {
		logger.Error("list vendors", slog.Any("error", err))
		return err
	}

	total := 0
	for _, vendorID := range vendors {
		expiring, err := j.Discounts.ExpiringWithin(ctx, vendorID, payload.Window)
		if err != nil {
			logger.Error("scan discounts", slog.Int64("vendor_id", vendorID), slog.Any("error", err))
			return err
		}
		for _, d := range expiring {
			logger.Info("discount expiring",
				slog.Int64("vendor_id", vendorID),
				slog.Int64("discount_id", d.ID),
				slog.String("product", d.ProductName),
				slog.Time("ends_at", *d.EndsAt))
		}
		j.metrics().AddExpiringDiscounts(vendorID, len(expiring))
		total += len(expiring)
	}
	logger.Info("completed discount expiry scan", slog.Int("vendors", len(vendors)), slog.Int("expiring", total))
	return nil
}

func (j *DiscountExpiryJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDiscountExpiryScan))
	}
	return slog.Default().With(slog.String("job", TaskDiscountExpiryScan))
}

func (j *DiscountExpiryJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
