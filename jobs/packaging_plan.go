package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/storefront/internal/fulfillment"
	jobmetrics "github.com/odyssey-erp/storefront/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// VendorLister enumerates vendors with live inventory.
type VendorLister interface {
	ListVendorIDs(ctx context.Context) ([]int64, error)
}

// PlanRefresher recomputes and caches a packaging plan.
type PlanRefresher interface {
	RefreshPlan(ctx context.Context, vendorID int64, forDate time.Time, filter fulfillment.OrderFilter) (fulfillment.Plan, error)
}

// PackagingPlanJob warms the packaging plan cache of every vendor ahead of the day.
type PackagingPlanJob struct {
	Plans   PlanRefresher
	Vendors VendorLister
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewPackagingPlanJob wires dependencies for the packaging plan handler.
func NewPackagingPlanJob(plans PlanRefresher, vendors VendorLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *PackagingPlanJob {
	return &PackagingPlanJob{
		Plans:   plans,
		Vendors: vendors,
		Logger:  logger,
		Metrics: metrics,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// Handle processes TaskPackagingPlan tasks. A failing vendor does not stop the
// others; the task fails once all vendors were attempted.
func (j *PackagingPlanJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Plans == nil {
		return errors.New("packaging plan: handler not configured")
	}
	var payload PackagingPlanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("packaging plan: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	day := j.clock().AddDate(0, 0, 1)
	if payload.Date != "" {
		parsed, err := time.Parse("2006-01-02", payload.Date)
		if err != nil {
			return fmt.Errorf("packaging plan: date %q: %w", payload.Date, asynq.SkipRetry)
		}
		day = parsed
	}

	tracker := j.metrics().Track(TaskPackagingPlan)
	defer func() { resultErr = tracker.End(resultErr) }()

	logger := j.logger().With(slog.String("date", day.Format("2006-01-02")))
	vendors := []int64{payload.VendorID}
	if payload.VendorID == 0 {
		if j.Vendors == nil {
			return errors.New("packaging plan: vendor lister not configured")
		}
		ids, err := j.Vendors.ListVendorIDs(ctx)
		if err != nil {
			logger.Error("list vendors", slog.Any("error", err))
			return err
		}
		vendors = ids
	}

	var errs []error
	for _, vendorID := range vendors {
		plan, err := j.Plans.RefreshPlan(ctx, vendorID, day, fulfillment.OrderFilter{})
		if err != nil {
			logger.Error("build packaging plan", slog.Int64("vendor_id", vendorID), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("vendor %d: %w", vendorID, err))
			continue
		}
		level := slog.LevelInfo
		if plan.Summary.OutOfStock > 0 {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "packaging plan ready",
			slog.Int64("vendor_id", vendorID),
			slog.Int("products", len(plan.Requirements)),
			slog.Int("low", plan.Summary.Low),
			slog.Int("out_of_stock", plan.Summary.OutOfStock))
	}
	return errors.Join(errs...)
}

func (j *PackagingPlanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskPackagingPlan))
	}
	return slog.Default().With(slog.String("job", TaskPackagingPlan))
}

func (j *PackagingPlanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
