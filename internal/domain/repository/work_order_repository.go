package repository

import (
	"context"

	"github.com/jhoicas/taller-api/internal/domain/entity"
)

// WorkOrderRepository define el puerto de persistencia para órdenes de trabajo.
type WorkOrderRepository interface {
	Create(ctx context.Context, order *entity.WorkOrder) error
	GetByID(ctx context.Context, companyID, id string) (*entity.WorkOrder, error)
	GetForUpdate(ctx context.Context, companyID, id string) (*entity.WorkOrder, error)
	List(ctx context.Context, companyID string, f WorkOrderFilter) ([]*entity.WorkOrder, int, error)
	// Update guarda los datos editables; el estado solo cambia con UpdateStatus.
	Update(ctx context.Context, order *entity.WorkOrder) error
	UpdateStatus(ctx context.Context, order *entity.WorkOrder) error
	Delete(ctx context.Context, companyID, id string) error
	AddHistory(ctx context.Context, change *entity.WorkOrderStatusChange) error
	ListHistory(ctx context.Context, companyID, workOrderID string) ([]*entity.WorkOrderStatusChange, error)
}
