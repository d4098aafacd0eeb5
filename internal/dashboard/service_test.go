package dashboard

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	metrics       Metrics
	low           []LowStockItem
	metricsCalls  int
	lowCalls      int
	gotMonthStart time.Time
}

func (m *mockRepo) Metrics(ctx context.Context, monthStart time.Time) (Metrics, error) {
	m.metricsCalls++
	m.gotMonthStart = monthStart
	return m.metrics, nil
}

func (m *mockRepo) LowStock(ctx context.Context) ([]LowStockItem, error) {
	m.lowCalls++
	return m.low, nil
}

func newTestService(t *testing.T, repo Repository) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)
	svc := NewService(repo, cache).WithNow(func() time.Time {
		return time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	})
	return svc
}

func TestGetSummaryCaches(t *testing.T) {
	repo := &mockRepo{
		metrics: Metrics{
			Counts:      Counts{Products: 12, Customers: 4, Suppliers: 3, SalesOrders: 7, PurchaseOrders: 5, PendingReceipt: 2},
			SalesMTD:    decimal.RequireFromString("1520.00"),
			PurchaseMTD: decimal.RequireFromString("830.50"),
			Receivables: decimal.RequireFromString("410.00"),
			Payables:    decimal.RequireFromString("275.25"),
		},
		low: []LowStockItem{
			{ProductID: uuid.New(), SKU: "WID-1", Name: "Widget", ReorderLevel: 10, OnHand: 4},
		},
	}
	svc := newTestService(t, repo)
	ctx := context.Background()

	summary, err := svc.GetSummary(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(12), summary.Metrics.Counts.Products)
	require.True(t, summary.Metrics.SalesMTD.Equal(decimal.RequireFromString("1520.00")))
	require.Len(t, summary.LowStock, 1)
	require.Equal(t, "WID-1", summary.LowStock[0].SKU)
	require.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), repo.gotMonthStart)

	again, err := svc.GetSummary(ctx)
	require.NoError(t, err)
	require.Equal(t, summary.Metrics.Counts, again.Metrics.Counts)
	require.Equal(t, 1, repo.metricsCalls, "second read should come from cache")
	require.Equal(t, 1, repo.lowCalls)
}

func TestInvalidateBumpsVersion(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(t, repo)
	ctx := context.Background()

	_, err := svc.GetSummary(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, repo.metricsCalls)

	require.NoError(t, svc.Invalidate(ctx))

	_, err = svc.GetSummary(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, repo.metricsCalls, "bump should force a reload")
}

func TestGetSummaryWithoutRedis(t *testing.T) {
	repo := &mockRepo{low: []LowStockItem{}}
	svc := NewService(repo, NewCache(nil, time.Minute))

	_, err := svc.GetSummary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, repo.metricsCalls)

	_, err = svc.GetSummary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, repo.metricsCalls, "nil client never caches")
}
