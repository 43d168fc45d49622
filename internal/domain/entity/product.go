package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un ítem del inventario (repuesto, accesorio o mercancía).
// Cost es promedio ponderado calculado desde movimientos; Stock solo cambia vía movimientos.
type Product struct {
	ID          string
	CompanyID   string
	SupplierID  *string
	SKU         string // código único por empresa
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal // precio de venta
	Cost        decimal.Decimal // costo promedio ponderado
	Stock       int
	MinStock    int // umbral de reorden
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsLowStock indica si el stock está en o por debajo del umbral de reorden.
func (p *Product) IsLowStock() bool {
	return p.Stock <= p.MinStock
}
