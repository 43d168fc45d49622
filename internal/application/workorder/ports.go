package workorder

import (
	"context"

	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
)

// TxRunner ejecuta fn en una transacción con repositorios atados a ella.
type TxRunner interface {
	RunWorkOrder(ctx context.Context, fn func(
		orders repository.WorkOrderRepository,
		seqs repository.SequenceRepository,
	) error) error
}

// BrandingSource entrega la identidad visual de la empresa para el ticket.
type BrandingSource interface {
	Branding(ctx context.Context, companyID string) (entity.BrandingSettings, error)
}
