package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPackagingPlan builds and caches the packaging plan of each vendor.
	TaskPackagingPlan = "fulfillment:packaging_plan"
	// TaskDiscountExpiryScan reports active discounts about to end.
	TaskDiscountExpiryScan = "discounts:expiry_scan"
	// TaskIdempotencyCleanup purges expired onboarding idempotency keys.
	TaskIdempotencyCleanup = "inventory:idempotency_cleanup"
)

// PackagingPlanPayload selects the vendor and day of a packaging plan run.
// A zero VendorID plans every vendor; an empty Date plans the next day.
type PackagingPlanPayload struct {
	VendorID int64  `json:"vendor_id,omitempty"`
	Date     string `json:"date,omitempty"`
}

// NewPackagingPlanTask constructs a packaging plan task.
func NewPackagingPlanTask(payload PackagingPlanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPackagingPlan, data), nil
}

// DiscountExpiryPayload configures the expiry scan window.
type DiscountExpiryPayload struct {
	Window time.Duration `json:"window"`
}

// NewDiscountExpiryTask constructs a discount expiry scan task.
func NewDiscountExpiryTask(window time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(DiscountExpiryPayload{Window: window})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDiscountExpiryScan, data), nil
}
