package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateWorkOrderRequest recepción de un equipo.
type CreateWorkOrderRequest struct {
	CustomerID     string          `json:"customer_id" validate:"required"`
	TechnicianID   *string         `json:"technician_id"`
	DeviceType     string          `json:"device_type" validate:"required"`
	Brand          string          `json:"brand"`
	Model          string          `json:"model"`
	SerialNumber   string          `json:"serial_number"`
	ReportedIssue  string          `json:"reported_issue" validate:"required"`
	EstimatedCost  decimal.Decimal `json:"estimated_cost"`
	AdvancePayment decimal.Decimal `json:"advance_payment"`
	PromisedAt     *time.Time      `json:"promised_at"`
	Notes          string          `json:"notes"`
}

// UpdateWorkOrderRequest datos editables de la orden (el estado va por ChangeStatus).
type UpdateWorkOrderRequest struct {
	TechnicianID   *string          `json:"technician_id"`
	DeviceType     *string          `json:"device_type"`
	Brand          *string          `json:"brand"`
	Model          *string          `json:"model"`
	SerialNumber   *string          `json:"serial_number"`
	ReportedIssue  *string          `json:"reported_issue"`
	Diagnosis      *string          `json:"diagnosis"`
	EstimatedCost  *decimal.Decimal `json:"estimated_cost"`
	FinalCost      *decimal.Decimal `json:"final_cost"`
	AdvancePayment *decimal.Decimal `json:"advance_payment"`
	PromisedAt     *time.Time       `json:"promised_at"`
	Notes          *string          `json:"notes"`
}

// ChangeStatusRequest avance de estado.
type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pendiente en_proceso finalizado entregado"`
	Note   string `json:"note"`
}

// WorkOrderResponse salida de una orden.
type WorkOrderResponse struct {
	ID             string          `json:"id"`
	CompanyID      string          `json:"company_id"`
	Number         string          `json:"number"`
	CustomerID     string          `json:"customer_id"`
	TechnicianID   *string         `json:"technician_id,omitempty"`
	DeviceType     string          `json:"device_type"`
	Brand          string          `json:"brand"`
	Model          string          `json:"model"`
	SerialNumber   string          `json:"serial_number"`
	ReportedIssue  string          `json:"reported_issue"`
	Diagnosis      string          `json:"diagnosis"`
	EstimatedCost  decimal.Decimal `json:"estimated_cost"`
	FinalCost      decimal.Decimal `json:"final_cost"`
	AdvancePayment decimal.Decimal `json:"advance_payment"`
	Balance        decimal.Decimal `json:"balance"`
	Status         string          `json:"status"`
	NextStatus     string          `json:"next_status,omitempty"`
	PromisedAt     *time.Time      `json:"promised_at,omitempty"`
	DeliveredAt    *time.Time      `json:"delivered_at,omitempty"`
	Notes          string          `json:"notes"`
	CreatedBy      string          `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// WorkOrderListResponse lista paginada de órdenes.
type WorkOrderListResponse struct {
	Items []WorkOrderResponse `json:"items"`
	Page  PageResponse        `json:"page"`
}

// StatusChangeResponse entrada del historial de estados.
type StatusChangeResponse struct {
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Note       string    `json:"note,omitempty"`
	ChangedBy  string    `json:"changed_by"`
	ChangedAt  time.Time `json:"changed_at"`
}
