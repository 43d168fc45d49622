package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-api/internal/application/dto"
	"github.com/jhoicas/taller-api/internal/application/ports"
	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/inventory"
	"github.com/jhoicas/taller-api/internal/domain/repository"
	"github.com/jhoicas/taller-api/pkg/logger"
)

// RegisterMovementUseCase registra movimientos manuales de inventario (IN, OUT, ADJUSTMENT)
// con bloqueo de fila (SELECT FOR UPDATE) y Commit/Rollback, y consulta el kardex.
type RegisterMovementUseCase struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
	movRepo     repository.InventoryMovementRepository
	exporter    ports.SpreadsheetExporter
	publisher   ports.EventPublisher
	log         *logger.Logger
}

// NewRegisterMovementUseCase construye el caso de uso.
func NewRegisterMovementUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	movRepo repository.InventoryMovementRepository,
	exporter ports.SpreadsheetExporter,
	publisher ports.EventPublisher,
	log *logger.Logger,
) *RegisterMovementUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &RegisterMovementUseCase{
		txRunner:    txRunner,
		productRepo: productRepo,
		movRepo:     movRepo,
		exporter:    exporter,
		publisher:   publisher,
		log:         log.Component("inventory"),
	}
}

// MovementInputDTO entrada para registrar un movimiento de inventario.
// IN: Quantity > 0 y UnitCost obligatorio. OUT: Quantity > 0.
// ADJUSTMENT: Quantity es el conteo físico (>= 0); el movimiento guarda la diferencia.
type MovementInputDTO struct {
	CompanyID string
	UserID    string
	ProductID string
	Type      string
	Quantity  int
	UnitCost  *decimal.Decimal
	Reason    string
}

// RegisterMovement inicia una transacción, bloquea el producto, aplica el movimiento y hace Commit o Rollback.
func (uc *RegisterMovementUseCase) RegisterMovement(ctx context.Context, input MovementInputDTO) (*dto.MovementResponse, error) {
	switch input.Type {
	case entity.MovementTypeIN:
		if input.Quantity <= 0 || input.UnitCost == nil || input.UnitCost.IsNegative() {
			return nil, fmt.Errorf("%w: IN requiere cantidad positiva y costo unitario", domain.ErrInvalidInput)
		}
	case entity.MovementTypeOUT:
		if input.Quantity <= 0 {
			return nil, fmt.Errorf("%w: OUT requiere cantidad positiva", domain.ErrInvalidInput)
		}
	case entity.MovementTypeADJUSTMENT:
		if input.Quantity < 0 {
			return nil, fmt.Errorf("%w: el conteo físico no puede ser negativo", domain.ErrInvalidInput)
		}
	default:
		return nil, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, input.Type)
	}
	if input.ProductID == "" {
		return nil, fmt.Errorf("%w: product_id es obligatorio", domain.ErrInvalidInput)
	}

	var (
		mov     *entity.InventoryMovement
		low     bool
		product *entity.Product
	)
	err := uc.txRunner.Run(ctx, func(movRepo repository.InventoryMovementRepository, productRepo repository.ProductRepository) error {
		p, err := productRepo.GetForUpdate(ctx, input.CompanyID, input.ProductID)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrNotFound
		}
		change := Change{
			Type:     input.Type,
			UnitCost: input.UnitCost,
			Reason:   input.Reason,
			UserID:   input.UserID,
			At:       time.Now(),
		}
		switch input.Type {
		case entity.MovementTypeIN:
			change.Delta = input.Quantity
		case entity.MovementTypeOUT:
			change.Delta = -input.Quantity
		case entity.MovementTypeADJUSTMENT:
			change.Delta = input.Quantity - p.Stock
			if change.Delta == 0 {
				return fmt.Errorf("%w: el conteo coincide con el stock actual", domain.ErrInvalidInput)
			}
		}
		mov, low, err = Apply(ctx, productRepo, movRepo, p, change)
		product = p
		return err
	})
	if err != nil {
		return nil, err
	}
	if low {
		uc.publish(ctx, LowStockEvent(product, input.UserID))
	}
	resp := dto.ToMovementResponse(mov)
	return &resp, nil
}

// RegisterMovementFromRequest adapta el request HTTP al caso de uso RegisterMovement.
func (uc *RegisterMovementUseCase) RegisterMovementFromRequest(ctx context.Context, companyID, userID string, in dto.RegisterMovementRequest) (*dto.MovementResponse, error) {
	return uc.RegisterMovement(ctx, MovementInputDTO{
		CompanyID: companyID,
		UserID:    userID,
		ProductID: in.ProductID,
		Type:      in.Type,
		Quantity:  in.Quantity,
		UnitCost:  in.UnitCost,
		Reason:    in.Reason,
	})
}

// ListMovements kardex de la empresa, opcionalmente por producto y rango de fechas.
func (uc *RegisterMovementUseCase) ListMovements(ctx context.Context, companyID string, f repository.MovementFilter) (*dto.MovementListResponse, error) {
	page := dto.PageRequest{Limit: f.Limit, Offset: f.Offset}
	page.DefaultPage()
	f.Limit, f.Offset = page.Limit, page.Offset
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, fmt.Errorf("%w: rango de fechas invertido", domain.ErrInvalidInput)
	}
	list, total, err := uc.movRepo.List(ctx, companyID, f)
	if err != nil {
		return nil, err
	}
	out := &dto.MovementListResponse{
		Items: make([]dto.MovementResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: f.Limit, Offset: f.Offset, Total: total},
	}
	for _, m := range list {
		out.Items = append(out.Items, dto.ToMovementResponse(m))
	}
	return out, nil
}

// ExportInventory libro XLSX con todos los productos de la empresa.
func (uc *RegisterMovementUseCase) ExportInventory(ctx context.Context, companyID string) ([]byte, error) {
	products, _, err := uc.productRepo.List(ctx, companyID, repository.ProductFilter{})
	if err != nil {
		return nil, err
	}
	return uc.exporter.InventoryWorkbook(products)
}

func (uc *RegisterMovementUseCase) publish(ctx context.Context, ev entity.DomainEvent) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.Publish(ctx, ev); err != nil {
		uc.log.Warn().Err(err).Str("event", ev.Type).Str("entity_id", ev.EntityID).Msg("no se pudo publicar evento")
	}
}

// WeightedCostFor costo promedio ponderado tras la entrada de qty unidades a unitCost.
func WeightedCostFor(p *entity.Product, qty int, unitCost decimal.Decimal) decimal.Decimal {
	return inventory.WeightedCost(p.Stock, p.Cost, qty, unitCost)
}
