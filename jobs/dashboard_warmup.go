package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/dashboard"
)

// DashboardWarmupJob primes the dashboard summary cache so the first request
// after an invalidation does not pay the aggregate query cost.
type DashboardWarmupJob struct {
	Service *dashboard.Service
	Logger  *slog.Logger
}

// NewDashboardWarmupJob initialises the warmup handler.
func NewDashboardWarmupJob(service *dashboard.Service, logger *slog.Logger) *DashboardWarmupJob {
	return &DashboardWarmupJob{Service: service, Logger: logger}
}

// Handle executes the warmup.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	logger := j.logger()
	start := time.Now()
	if _, err := j.Service.GetSummary(ctx); err != nil {
		logger.Error("warmup failed", slog.Any("error", err))
		return err
	}
	logger.Info("dashboard cache warmed", slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *DashboardWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDashboardWarmup))
	}
	return slog.Default().With(slog.String("job", TaskDashboardWarmup))
}
