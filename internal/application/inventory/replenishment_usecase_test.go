package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
	"github.com/jhoicas/taller-api/internal/testutil/memstore"
)

type soldRepo struct {
	sold []repository.ProductSales
}

func (r soldRepo) SalesTotals(context.Context, string, time.Time, time.Time) (int, decimal.Decimal, error) {
	return 0, decimal.Zero, nil
}

func (r soldRepo) TopProducts(context.Context, string, time.Time, time.Time, int) ([]repository.ProductSales, error) {
	return r.sold, nil
}

func (r soldRepo) CountLowStock(context.Context, string) (int, error) { return 0, nil }

func (r soldRepo) WorkOrdersByStatus(context.Context, string) (map[string]int, error) {
	return map[string]int{}, nil
}

func TestLowStock_PriorizaLoQueMasRota(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	for _, p := range []entity.Product{
		{ID: "a", CompanyID: companyID, SKU: "A", Stock: 1, MinStock: 5, Cost: decimal.NewFromInt(10), Active: true},
		{ID: "b", CompanyID: companyID, SKU: "B", Stock: 2, MinStock: 2, Cost: decimal.NewFromInt(3), Active: true},
		{ID: "c", CompanyID: companyID, SKU: "C", Stock: 9, MinStock: 2, Active: true},
		{ID: "d", CompanyID: companyID, SKU: "D", Stock: 0, MinStock: 2, Active: false},
	} {
		p := p
		require.NoError(t, store.Products().Create(ctx, &p))
	}
	uc := NewReplenishmentUseCase(store.Products(), soldRepo{sold: []repository.ProductSales{{ProductID: "b", Quantity: 12}}})

	items, err := uc.LowStock(ctx, companyID)
	require.NoError(t, err)
	require.Len(t, items, 2, "C tiene stock suficiente y D está inactivo")

	assert.Equal(t, "B", items[0].SKU)
	assert.Equal(t, 1, items[0].Priority)
	assert.Equal(t, 10, items[0].SuggestedOrderQty, "lo vendido (12) supera 2×mínimo")
	assert.True(t, decimal.NewFromInt(30).Equal(items[0].EstimatedOrderCost))

	assert.Equal(t, "A", items[1].SKU)
	assert.Equal(t, 9, items[1].SuggestedOrderQty)
}

func TestLowStock_SinProductos(t *testing.T) {
	uc := NewReplenishmentUseCase(memstore.New().Products(), soldRepo{})
	items, err := uc.LowStock(context.Background(), companyID)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}
