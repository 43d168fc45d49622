package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de venta.
const (
	SaleStatusCompleted = "completada"
	SaleStatusCancelled = "anulada"
)

// Medios de pago aceptados.
const (
	PaymentCash     = "efectivo"
	PaymentCard     = "tarjeta"
	PaymentTransfer = "transferencia"
)

// IsValidPaymentMethod indica si m es un medio de pago soportado.
func IsValidPaymentMethod(m string) bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer:
		return true
	}
	return false
}

// Sale cabecera de una venta de mostrador.
type Sale struct {
	ID            string
	CompanyID     string
	Number        string // V-000001, consecutivo por empresa
	CustomerID    *string
	UserID        string // vendedor
	PaymentMethod string
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
	Paid          decimal.Decimal
	Change        decimal.Decimal
	Status        string
	Notes         string
	CancelReason  string
	CancelledAt   *time.Time
	Items         []SaleItem
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SaleItem línea de venta (productos_venta). Nombre y precio quedan congelados al vender.
type SaleItem struct {
	ID          string
	SaleID      string
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}
