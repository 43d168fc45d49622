package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de inventario.
const (
	MovementTypeIN         = "IN"          // entrada (compra a proveedor)
	MovementTypeOUT        = "OUT"         // salida manual (consumo, pérdida)
	MovementTypeADJUSTMENT = "ADJUSTMENT"  // conteo físico
	MovementTypeSale       = "SALE"        // descuento por venta
	MovementTypeSaleReturn = "SALE_RETURN" // devolución por edición o anulación de venta
)

// InventoryMovement registra un cambio de stock con el valor anterior y el nuevo.
type InventoryMovement struct {
	ID            string
	CompanyID     string
	ProductID     string
	Type          string
	Quantity      int // positivo entra, negativo sale
	PreviousStock int
	NewStock      int
	UnitCost      decimal.Decimal
	ReferenceID   string // venta u otra entidad que originó el movimiento
	Reason        string
	CreatedBy     string
	CreatedAt     time.Time
}
