package entity

import "time"

// Tipos de eventos de dominio publicados después de confirmar una transacción.
const (
	EventSaleCreated            = "sale.created"
	EventSaleCancelled          = "sale.cancelled"
	EventWorkOrderCreated       = "work_order.created"
	EventWorkOrderStatusChanged = "work_order.status_changed"
	EventProductLowStock        = "product.low_stock"
)

// DomainEvent hecho de negocio ya ocurrido. Data lleva valores de presentación
// (número, total, estado) para no tener que releer la base al consumirlo.
type DomainEvent struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	CompanyID  string            `json:"company_id"`
	UserID     string            `json:"user_id,omitempty"`
	EntityID   string            `json:"entity_id"`
	Data       map[string]string `json:"data,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}
