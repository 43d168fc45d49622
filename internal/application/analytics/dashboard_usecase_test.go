package analytics

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
	"github.com/jhoicas/taller-api/internal/testutil/memstore"
)

type fakeAnalytics struct {
	calls atomic.Int32
}

func (f *fakeAnalytics) SalesTotals(_ context.Context, _ string, from, _ time.Time) (int, decimal.Decimal, error) {
	f.calls.Add(1)
	if from.Day() == 1 {
		return 40, decimal.RequireFromString("1250000.456"), nil
	}
	return 3, decimal.RequireFromString("90000.004"), nil
}

func (f *fakeAnalytics) TopProducts(_ context.Context, _ string, _, _ time.Time, limit int) ([]repository.ProductSales, error) {
	f.calls.Add(1)
	return []repository.ProductSales{
		{ProductID: "p1", SKU: "PAN-1", ProductName: "Pantalla", Quantity: 7, Revenue: decimal.RequireFromString("700000.555")},
	}[:min(limit, 1)], nil
}

func (f *fakeAnalytics) CountLowStock(context.Context, string) (int, error) {
	f.calls.Add(1)
	return 4, nil
}

func (f *fakeAnalytics) WorkOrdersByStatus(context.Context, string) (map[string]int, error) {
	f.calls.Add(1)
	return map[string]int{entity.WorkOrderPending: 2, entity.WorkOrderFinished: 1, entity.WorkOrderDelivered: 30}, nil
}

func newDashboard(repo *fakeAnalytics) *DashboardUseCase {
	uc := NewDashboardUseCase(repo, memstore.NewCache())
	uc.now = func() time.Time { return time.Date(2026, time.October, 19, 15, 30, 0, 0, time.UTC) }
	return uc
}

func TestGetSummary(t *testing.T) {
	repo := &fakeAnalytics{}
	uc := newDashboard(repo)

	out, err := uc.GetSummary(context.Background(), "c1")
	require.NoError(t, err)

	assert.Equal(t, "Octubre 2026", out.DateLabel)
	assert.Equal(t, 3, out.TodaySalesCount)
	assert.Equal(t, "90000", out.TodaySalesTotal.String())
	assert.Equal(t, 40, out.MonthSalesCount)
	assert.Equal(t, "1250000.46", out.MonthSalesTotal.String())
	assert.Equal(t, 4, out.LowStockProducts)
	assert.Equal(t, map[string]int{
		entity.WorkOrderPending:    2,
		entity.WorkOrderInProgress: 0,
		entity.WorkOrderFinished:   1,
	}, out.OpenWorkOrders, "las entregadas no cuentan como abiertas")
	require.Len(t, out.TopProducts, 1)
	assert.Equal(t, "700000.56", out.TopProducts[0].Revenue.String())
}

func TestGetSummary_CacheEInvalidacion(t *testing.T) {
	repo := &fakeAnalytics{}
	uc := newDashboard(repo)
	ctx := context.Background()

	_, err := uc.GetSummary(ctx, "c1")
	require.NoError(t, err)
	assert.EqualValues(t, 5, repo.calls.Load())

	_, err = uc.GetSummary(ctx, "c1")
	require.NoError(t, err)
	assert.EqualValues(t, 5, repo.calls.Load(), "segunda lectura sale de caché")

	uc.Invalidate(ctx, "c1")
	_, err = uc.GetSummary(ctx, "c1")
	require.NoError(t, err)
	assert.EqualValues(t, 10, repo.calls.Load())
}
