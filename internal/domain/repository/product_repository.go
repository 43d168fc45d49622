package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para productos.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Product, error)
	GetByCompanyAndSKU(ctx context.Context, companyID, sku string) (*entity.Product, error)
	// GetForUpdate bloquea la fila (SELECT ... FOR UPDATE); solo tiene sentido dentro de una tx.
	GetForUpdate(ctx context.Context, companyID, id string) (*entity.Product, error)
	List(ctx context.Context, companyID string, f ProductFilter) ([]*entity.Product, int, error)
	// Update no toca stock ni costo.
	Update(ctx context.Context, product *entity.Product) error
	UpdateStock(ctx context.Context, id string, stock int, cost decimal.Decimal) error
	Delete(ctx context.Context, companyID, id string) error
}

// InventoryMovementRepository define el puerto de persistencia del kardex.
type InventoryMovementRepository interface {
	Create(ctx context.Context, mov *entity.InventoryMovement) error
	List(ctx context.Context, companyID string, f MovementFilter) ([]*entity.InventoryMovement, int, error)
}
