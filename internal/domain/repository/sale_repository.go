package repository

import (
	"context"

	"github.com/jhoicas/taller-api/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia para ventas y sus líneas.
type SaleRepository interface {
	// Create inserta cabecera y líneas.
	Create(ctx context.Context, sale *entity.Sale) error
	// GetByID devuelve la venta con sus líneas.
	GetByID(ctx context.Context, companyID, id string) (*entity.Sale, error)
	// GetForUpdate bloquea la cabecera y devuelve la venta con sus líneas.
	GetForUpdate(ctx context.Context, companyID, id string) (*entity.Sale, error)
	List(ctx context.Context, companyID string, f SaleFilter) ([]*entity.Sale, int, error)
	// Update reescribe cabecera y reemplaza las líneas.
	Update(ctx context.Context, sale *entity.Sale) error
	UpdateStatus(ctx context.Context, sale *entity.Sale) error
}
