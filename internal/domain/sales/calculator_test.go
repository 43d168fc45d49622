package sales

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
)

func item(productID string, qty int, price int64) entity.SaleItem {
	return entity.SaleItem{ProductID: productID, Quantity: qty, UnitPrice: decimal.NewFromInt(price)}
}

func TestComputeTotals(t *testing.T) {
	paid := decimal.NewFromInt(50000)
	items, totals, err := ComputeTotals(
		[]entity.SaleItem{item("p1", 2, 12000), item("p2", 1, 15000)},
		decimal.NewFromInt(4000), &paid,
	)
	require.NoError(t, err)

	assert.True(t, items[0].Subtotal.Equal(decimal.NewFromInt(24000)))
	assert.True(t, totals.Subtotal.Equal(decimal.NewFromInt(39000)))
	assert.True(t, totals.Total.Equal(decimal.NewFromInt(35000)))
	assert.True(t, totals.Change.Equal(decimal.NewFromInt(15000)))
}

func TestComputeTotals_RedondeaPrecioALaEscalaGuardada(t *testing.T) {
	it := entity.SaleItem{ProductID: "p1", Quantity: 3, UnitPrice: decimal.RequireFromString("0.333")}
	items, totals, err := ComputeTotals([]entity.SaleItem{it}, decimal.Zero, nil)
	require.NoError(t, err)

	assert.Equal(t, "0.33", items[0].UnitPrice.StringFixed(2))
	assert.True(t, items[0].UnitPrice.Equal(decimal.RequireFromString("0.33")))
	assert.True(t, items[0].Subtotal.Equal(items[0].UnitPrice.Mul(decimal.NewFromInt(3))), "subtotal = precio guardado × cantidad")
	assert.Equal(t, "0.99", totals.Total.StringFixed(2))
}

func TestComputeTotals_PagoExactoPorDefecto(t *testing.T) {
	_, totals, err := ComputeTotals([]entity.SaleItem{item("p1", 3, 1000)}, decimal.Zero, nil)
	require.NoError(t, err)
	assert.True(t, totals.Paid.Equal(totals.Total))
	assert.True(t, totals.Change.IsZero())
}

func TestComputeTotals_Errores(t *testing.T) {
	short := decimal.NewFromInt(10)
	cases := map[string]struct {
		items    []entity.SaleItem
		discount decimal.Decimal
		paid     *decimal.Decimal
	}{
		"cantidad cero":        {[]entity.SaleItem{item("p1", 0, 1000)}, decimal.Zero, nil},
		"descuento negativo":   {[]entity.SaleItem{item("p1", 1, 1000)}, decimal.NewFromInt(-1), nil},
		"descuento > subtotal": {[]entity.SaleItem{item("p1", 1, 1000)}, decimal.NewFromInt(1001), nil},
		"pago insuficiente":    {[]entity.SaleItem{item("p1", 1, 1000)}, decimal.Zero, &short},
		"precio negativo":      {[]entity.SaleItem{item("p1", 1, -5)}, decimal.Zero, nil},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := ComputeTotals(tc.items, tc.discount, tc.paid)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestStockDiff(t *testing.T) {
	old := []entity.SaleItem{item("a", 2, 1), item("b", 1, 1), item("a", 1, 1), item("c", 4, 1)}
	updated := []entity.SaleItem{item("a", 1, 1), item("b", 1, 1), item("d", 5, 1)}

	diff := StockDiff(old, updated)

	assert.Equal(t, map[string]int{"a": -2, "c": -4, "d": 5}, diff)
}

func TestSortedProductIDs(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SortedProductIDs(map[string]int{"c": 1, "a": 2, "b": 3}))
}
