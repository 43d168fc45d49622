package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest entrada manual al kardex (IN, OUT, ADJUSTMENT).
// En ADJUSTMENT Quantity es el conteo físico resultante.
type RegisterMovementRequest struct {
	ProductID string           `json:"product_id" validate:"required"`
	Type      string           `json:"type" validate:"required,oneof=IN OUT ADJUSTMENT"`
	Quantity  int              `json:"quantity"`
	UnitCost  *decimal.Decimal `json:"unit_cost"`
	Reason    string           `json:"reason"`
}

// MovementResponse salida de un movimiento.
type MovementResponse struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"product_id"`
	Type          string          `json:"type"`
	Quantity      int             `json:"quantity"`
	PreviousStock int             `json:"previous_stock"`
	NewStock      int             `json:"new_stock"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	CreatedBy     string          `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

// MovementListResponse kardex paginado.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// LowStockItemDTO producto en o bajo el umbral de reorden con sugerencia de pedido.
type LowStockItemDTO struct {
	ProductID          string          `json:"product_id"`
	SKU                string          `json:"sku"`
	Name               string          `json:"name"`
	SupplierID         *string         `json:"supplier_id,omitempty"`
	Stock              int             `json:"stock"`
	MinStock           int             `json:"min_stock"`
	SuggestedOrderQty  int             `json:"suggested_order_qty"`
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"`
	UnitsSoldLast30d   int             `json:"units_sold_last_30d"`
	Priority           int             `json:"priority"`
}
