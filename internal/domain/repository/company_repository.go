package repository

import (
	"context"

	"github.com/jhoicas/taller-api/internal/domain/entity"
)

// CompanyRepository define el puerto de persistencia para Company.
type CompanyRepository interface {
	Create(ctx context.Context, company *entity.Company) error
	GetByID(ctx context.Context, id string) (*entity.Company, error)
	GetByTaxID(ctx context.Context, taxID string) (*entity.Company, error)
	Update(ctx context.Context, company *entity.Company) error
	UpdateLogo(ctx context.Context, id, logoURL string) error
}

// SequenceRepository entrega consecutivos por empresa (ventas, órdenes).
// Debe usarse dentro de la misma transacción que inserta el documento numerado.
type SequenceRepository interface {
	Next(ctx context.Context, companyID, name string) (int64, error)
}
