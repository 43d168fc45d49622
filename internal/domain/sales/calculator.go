// Package sales contiene los cálculos puros de una venta: totales y diferencias de stock.
package sales

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
)

// Totals resultado del cálculo de una venta.
type Totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
	Paid     decimal.Decimal
	Change   decimal.Decimal
}

// ComputeTotals calcula subtotal de cada línea y los totales de la venta. Precios, descuento
// y pago se redondean a 2 decimales, la escala de las columnas NUMERIC(14,2).
// paid nil significa pago exacto. Devuelve ErrInvalidInput si el descuento es negativo
// o supera el subtotal, o si lo pagado no cubre el total.
func ComputeTotals(items []entity.SaleItem, discount decimal.Decimal, paid *decimal.Decimal) ([]entity.SaleItem, Totals, error) {
	discount = discount.Round(2)
	if discount.IsNegative() {
		return nil, Totals{}, domain.ErrInvalidInput
	}
	out := make([]entity.SaleItem, len(items))
	subtotal := decimal.Zero
	for i, it := range items {
		if it.Quantity <= 0 || it.UnitPrice.IsNegative() {
			return nil, Totals{}, domain.ErrInvalidInput
		}
		it.UnitPrice = it.UnitPrice.Round(2)
		it.Subtotal = it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))).Round(2)
		subtotal = subtotal.Add(it.Subtotal)
		out[i] = it
	}
	if discount.GreaterThan(subtotal) {
		return nil, Totals{}, domain.ErrInvalidInput
	}
	t := Totals{Subtotal: subtotal, Discount: discount}
	t.Total = subtotal.Sub(t.Discount)
	t.Paid = t.Total
	if paid != nil {
		t.Paid = paid.Round(2)
		if t.Paid.LessThan(t.Total) {
			return nil, Totals{}, domain.ErrInvalidInput
		}
	}
	t.Change = t.Paid.Sub(t.Total)
	return out, t, nil
}

// QuantitiesByProduct suma las cantidades por producto (una venta puede repetir producto).
func QuantitiesByProduct(items []entity.SaleItem) map[string]int {
	q := make(map[string]int, len(items))
	for _, it := range items {
		q[it.ProductID] += it.Quantity
	}
	return q
}

// StockDiff devuelve, por producto, cuántas unidades adicionales consume la versión nueva
// de la venta respecto a la anterior: positivo sale de bodega, negativo vuelve a bodega.
// Los productos sin cambio no aparecen.
func StockDiff(oldItems, newItems []entity.SaleItem) map[string]int {
	oldQ := QuantitiesByProduct(oldItems)
	newQ := QuantitiesByProduct(newItems)
	diff := make(map[string]int)
	for id, n := range newQ {
		if d := n - oldQ[id]; d != 0 {
			diff[id] = d
		}
	}
	for id, o := range oldQ {
		if _, ok := newQ[id]; !ok && o != 0 {
			diff[id] = -o
		}
	}
	return diff
}

// SortedProductIDs devuelve las claves ordenadas. Bloquear filas siempre en el mismo
// orden evita interbloqueos entre ventas concurrentes.
func SortedProductIDs[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
