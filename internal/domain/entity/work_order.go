package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden de trabajo, en el orden en que se recorren.
const (
	WorkOrderPending    = "pendiente"
	WorkOrderInProgress = "en_proceso"
	WorkOrderFinished   = "finalizado"
	WorkOrderDelivered  = "entregado"
)

// WorkOrder representa una orden de reparación de un equipo de un cliente.
type WorkOrder struct {
	ID             string
	CompanyID      string
	Number         string // OT-000001, consecutivo por empresa
	CustomerID     string
	TechnicianID   *string // empleado asignado
	DeviceType     string
	Brand          string
	Model          string
	SerialNumber   string
	ReportedIssue  string
	Diagnosis      string
	EstimatedCost  decimal.Decimal
	FinalCost      decimal.Decimal
	AdvancePayment decimal.Decimal
	Status         string
	PromisedAt     *time.Time
	DeliveredAt    *time.Time
	Notes          string
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Balance es lo que el cliente debe pagar al retirar el equipo.
func (w *WorkOrder) Balance() decimal.Decimal {
	cost := w.FinalCost
	if cost.IsZero() {
		cost = w.EstimatedCost
	}
	b := cost.Sub(w.AdvancePayment)
	if b.IsNegative() {
		return decimal.Zero
	}
	return b
}

// WorkOrderStatusChange es una entrada del historial de estados de una orden.
type WorkOrderStatusChange struct {
	ID          string
	CompanyID   string
	WorkOrderID string
	FromStatus  string
	ToStatus    string
	Note        string
	ChangedBy   string
	ChangedAt   time.Time
}
