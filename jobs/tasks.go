package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStockReorderScan flags products at or below their reorder level.
	TaskStockReorderScan = "stock:reorder_scan"
	// TaskDashboardWarmup precomputes the dashboard summary cache.
	TaskDashboardWarmup = "dashboard:warmup"
	// TaskIdempotencyCleanup expires stale idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// ReorderScanPayload tunes the reorder level scan.
type ReorderScanPayload struct {
	// Limit caps how many products a single scan reports. Zero means no cap.
	Limit int `json:"limit"`
}

// NewReorderScanTask constructs an Asynq task for the reorder scan.
func NewReorderScanTask(payload ReorderScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockReorderScan, data), nil
}

// NewDashboardWarmupTask constructs an Asynq task for the dashboard warmup.
func NewDashboardWarmupTask() (*asynq.Task, error) {
	return asynq.NewTask(TaskDashboardWarmup, nil), nil
}

// IdempotencyCleanupPayload tunes the idempotency key retention.
type IdempotencyCleanupPayload struct {
	// RetentionHours keeps keys younger than this many hours. Zero means the
	// default retention of 24 hours.
	RetentionHours int `json:"retention_hours"`
}

// NewIdempotencyCleanupTask constructs an Asynq task for the key cleanup.
func NewIdempotencyCleanupTask(payload IdempotencyCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}
