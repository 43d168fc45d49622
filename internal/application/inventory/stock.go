package inventory

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
)

// Change un cambio de stock sobre un producto ya bloqueado con GetForUpdate.
// Delta positivo entra, negativo sale. UnitCost nil usa el costo promedio vigente.
type Change struct {
	Type        string
	Delta       int
	UnitCost    *decimal.Decimal
	ReferenceID string
	Reason      string
	UserID      string
	At          time.Time
}

// Apply aplica el cambio sobre p dentro de la transacción del caller: valida que el stock no quede
// negativo, recalcula el costo promedio en las entradas con costo, persiste stock y movimiento.
// Devuelve el movimiento y si el producto cruzó hacia abajo su umbral de reorden.
func Apply(
	ctx context.Context,
	productRepo repository.ProductRepository,
	movRepo repository.InventoryMovementRepository,
	p *entity.Product,
	c Change,
) (*entity.InventoryMovement, bool, error) {
	newStock := p.Stock + c.Delta
	if newStock < 0 {
		return nil, false, domain.ErrInsufficientStock
	}
	cost := p.Cost
	unitCost := p.Cost
	if c.UnitCost != nil {
		unitCost = *c.UnitCost
		if c.Delta > 0 {
			cost = WeightedCostFor(p, c.Delta, unitCost)
		}
	}
	if err := productRepo.UpdateStock(ctx, p.ID, newStock, cost); err != nil {
		return nil, false, err
	}
	at := c.At
	if at.IsZero() {
		at = time.Now()
	}
	mov := &entity.InventoryMovement{
		ID:            uuid.New().String(),
		CompanyID:     p.CompanyID,
		ProductID:     p.ID,
		Type:          c.Type,
		Quantity:      c.Delta,
		PreviousStock: p.Stock,
		NewStock:      newStock,
		UnitCost:      unitCost,
		ReferenceID:   c.ReferenceID,
		Reason:        c.Reason,
		CreatedBy:     c.UserID,
		CreatedAt:     at,
	}
	if err := movRepo.Create(ctx, mov); err != nil {
		return nil, false, err
	}
	crossed := p.Stock > p.MinStock && newStock <= p.MinStock
	p.Stock = newStock
	p.Cost = cost
	return mov, crossed, nil
}

// LowStockEvent evento de producto bajo el umbral de reorden.
func LowStockEvent(p *entity.Product, userID string) entity.DomainEvent {
	return entity.DomainEvent{
		ID:        uuid.New().String(),
		Type:      entity.EventProductLowStock,
		CompanyID: p.CompanyID,
		UserID:    userID,
		EntityID:  p.ID,
		Data: map[string]string{
			"sku":       p.SKU,
			"name":      p.Name,
			"stock":     strconv.Itoa(p.Stock),
			"min_stock": strconv.Itoa(p.MinStock),
		},
		OccurredAt: time.Now(),
	}
}
