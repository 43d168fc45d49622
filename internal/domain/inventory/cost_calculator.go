package inventory

import "github.com/shopspring/decimal"

// CostCalculator implementa la lógica de costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
func CostCalculator(stockActual, costoActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	sum := stockActual.Add(cantEntrada)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := stockActual.Mul(costoActual).Add(cantEntrada.Mul(costoEntrada))
	return num.Div(sum).Round(2)
}

// WeightedCost versión para cantidades enteras de inventario. Si el stock previo es negativo
// o cero, el costo de la entrada reemplaza al anterior.
func WeightedCost(stock int, cost decimal.Decimal, qtyIn int, unitCost decimal.Decimal) decimal.Decimal {
	if stock <= 0 {
		return unitCost.Round(2)
	}
	return CostCalculator(decimal.NewFromInt(int64(stock)), cost, decimal.NewFromInt(int64(qtyIn)), unitCost)
}
