package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Service coordinates dashboard query execution with the cache layer.
type Service struct {
	repo  Repository
	cache *Cache
	now   func() time.Time
}

// NewService wires a Repository with a Cache helper.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache, now: time.Now}
}

// WithNow overrides the clock, used by tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// GetSummary returns the dashboard payload, served from cache when warm.
func (s *Service) GetSummary(ctx context.Context) (Summary, error) {
	key, err := s.cache.BuildKey(ctx, keySummary())
	if err != nil {
		return Summary{}, err
	}
	var summary Summary
	err = s.cache.FetchJSON(ctx, key, &summary, func(ctx context.Context) (interface{}, error) {
		return s.load(ctx)
	})
	return summary, err
}

// Invalidate bumps the cache version after document or stock mutations.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) load(ctx context.Context) (Summary, error) {
	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var (
		metrics Metrics
		low     []LowStockItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		metrics, err = s.repo.Metrics(gctx, monthStart)
		return err
	})
	g.Go(func() error {
		var err error
		low, err = s.repo.LowStock(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	if low == nil {
		low = []LowStockItem{}
	}
	return Summary{Metrics: metrics, LowStock: low}, nil
}
