package sales

import (
	"context"

	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
)

// TxRunner ejecuta fn en una transacción: venta, stock, kardex y consecutivo se confirman juntos.
type TxRunner interface {
	RunSales(ctx context.Context, fn func(
		sales repository.SaleRepository,
		products repository.ProductRepository,
		movements repository.InventoryMovementRepository,
		seqs repository.SequenceRepository,
	) error) error
}

// BrandingSource entrega la identidad visual de la empresa para el recibo.
type BrandingSource interface {
	Branding(ctx context.Context, companyID string) (entity.BrandingSettings, error)
}
