package repository

import (
	"context"

	"github.com/jhoicas/taller-api/internal/domain/entity"
)

// CustomerRepository define el puerto de persistencia para clientes.
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Customer, error)
	List(ctx context.Context, companyID string, f ListFilter) ([]*entity.Customer, int, error)
	Update(ctx context.Context, customer *entity.Customer) error
	Delete(ctx context.Context, companyID, id string) error
}

// EmployeeRepository define el puerto de persistencia para empleados.
type EmployeeRepository interface {
	Create(ctx context.Context, employee *entity.Employee) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Employee, error)
	List(ctx context.Context, companyID string, f ListFilter) ([]*entity.Employee, int, error)
	Update(ctx context.Context, employee *entity.Employee) error
	Delete(ctx context.Context, companyID, id string) error
}

// SupplierRepository define el puerto de persistencia para proveedores.
type SupplierRepository interface {
	Create(ctx context.Context, supplier *entity.Supplier) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Supplier, error)
	List(ctx context.Context, companyID string, f ListFilter) ([]*entity.Supplier, int, error)
	Update(ctx context.Context, supplier *entity.Supplier) error
	Delete(ctx context.Context, companyID, id string) error
}
