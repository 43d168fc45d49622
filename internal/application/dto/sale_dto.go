package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleItemRequest línea de venta. UnitPrice nil toma el precio vigente del producto.
type SaleItemRequest struct {
	ProductID string           `json:"product_id" validate:"required"`
	Quantity  int              `json:"quantity" validate:"min=1"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// CreateSaleRequest venta de mostrador.
type CreateSaleRequest struct {
	CustomerID    *string           `json:"customer_id"`
	PaymentMethod string            `json:"payment_method" validate:"required,oneof=efectivo tarjeta transferencia"`
	Discount      decimal.Decimal   `json:"discount"`
	Paid          *decimal.Decimal  `json:"paid"`
	Notes         string            `json:"notes"`
	Items         []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
}

// UpdateSaleRequest edición de una venta: las líneas reemplazan a las anteriores
// y el stock se concilia por diferencia.
type UpdateSaleRequest struct {
	CustomerID    *string           `json:"customer_id"`
	PaymentMethod string            `json:"payment_method" validate:"required,oneof=efectivo tarjeta transferencia"`
	Discount      decimal.Decimal   `json:"discount"`
	Paid          *decimal.Decimal  `json:"paid"`
	Notes         string            `json:"notes"`
	Items         []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
}

// CancelSaleRequest anulación.
type CancelSaleRequest struct {
	Reason string `json:"reason"`
}

// EmailReceiptRequest destino del recibo; vacío usa el email del cliente.
type EmailReceiptRequest struct {
	To string `json:"to" validate:"omitempty,email"`
}

// SaleItemResponse línea de venta.
type SaleItemResponse struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// SaleResponse salida de una venta.
type SaleResponse struct {
	ID            string             `json:"id"`
	CompanyID     string             `json:"company_id"`
	Number        string             `json:"number"`
	CustomerID    *string            `json:"customer_id,omitempty"`
	UserID        string             `json:"user_id"`
	PaymentMethod string             `json:"payment_method"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	Discount      decimal.Decimal    `json:"discount"`
	Total         decimal.Decimal    `json:"total"`
	Paid          decimal.Decimal    `json:"paid"`
	Change        decimal.Decimal    `json:"change"`
	Status        string             `json:"status"`
	Notes         string             `json:"notes"`
	CancelReason  string             `json:"cancel_reason,omitempty"`
	CancelledAt   *time.Time         `json:"cancelled_at,omitempty"`
	Items         []SaleItemResponse `json:"items"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// SaleListResponse lista paginada de ventas (sin líneas).
type SaleListResponse struct {
	Items []SaleResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}
