package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// ReorderScanJob walks active products and raises an alert for every product
// whose on-hand quantity sits at or below its reorder level.
type ReorderScanJob struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger
	Audit  *shared.ActivityLogger
	clock  func() time.Time
}

// NewReorderScanJob initialises the reorder scan handler.
func NewReorderScanJob(pool *pgxpool.Pool, logger *slog.Logger, audit *shared.ActivityLogger) *ReorderScanJob {
	return &ReorderScanJob{
		Pool:   pool,
		Logger: logger,
		Audit:  audit,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type reorderHit struct {
	ProductID    string
	SKU          string
	Name         string
	ReorderLevel int64
	OnHand       int64
}

// Handle executes the reorder scan logic.
func (j *ReorderScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("reorder scan: handler not configured")
	}
	var payload ReorderScanPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	start := j.now()
	logger := j.logger()
	logger.Info("starting reorder scan", slog.Int("limit", payload.Limit))

	hits, err := j.scan(ctx, payload.Limit)
	if err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return err
	}

	for _, hit := range hits {
		logger.Warn("product below reorder level",
			slog.String("product_id", hit.ProductID),
			slog.String("sku", hit.SKU),
			slog.Int64("reorder_level", hit.ReorderLevel),
			slog.Int64("on_hand", hit.OnHand),
		)
		if j.Audit != nil {
			if err := j.Audit.Record(ctx, shared.ActivityLog{
				Action:   "stock.reorder_alert",
				Entity:   "product",
				EntityID: hit.ProductID,
				Details:  hit.Name,
				Meta: map[string]any{
					"sku":           hit.SKU,
					"reorder_level": hit.ReorderLevel,
					"on_hand":       hit.OnHand,
				},
				At: start,
			}); err != nil {
				logger.Warn("record reorder alert", slog.Any("error", err))
			}
		}
	}

	logger.Info("completed reorder scan",
		slog.Int("alerts", len(hits)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *ReorderScanJob) scan(ctx context.Context, limit int) ([]reorderHit, error) {
	if j.Pool == nil {
		return nil, errors.New("reorder scan: pool not configured")
	}
	query := `SELECT p.id, p.sku, p.name, p.reorder_level,
  COALESCE((SELECT SUM(s.quantity) FROM stock s WHERE s.product_id = p.id), 0) AS on_hand
FROM products p
WHERE p.is_active AND p.reorder_level > 0
  AND COALESCE((SELECT SUM(s.quantity) FROM stock s WHERE s.product_id = p.id), 0) <= p.reorder_level
ORDER BY p.name`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := j.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []reorderHit
	for rows.Next() {
		var hit reorderHit
		if err := rows.Scan(&hit.ProductID, &hit.SKU, &hit.Name, &hit.ReorderLevel, &hit.OnHand); err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

func (j *ReorderScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskStockReorderScan))
	}
	return slog.Default().With(slog.String("job", TaskStockReorderScan))
}

func (j *ReorderScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
