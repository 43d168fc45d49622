package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-api/internal/application/dto"
	"github.com/jhoicas/taller-api/internal/domain/repository"
)

const salesWindowDays = 30

// ReplenishmentUseCase lista los productos en o bajo su umbral de reorden con la cantidad sugerida de pedido.
// Combina stock con las ventas recientes para priorizar los productos que más rotan.
type ReplenishmentUseCase struct {
	productRepo   repository.ProductRepository
	analyticsRepo repository.AnalyticsRepository
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(
	productRepo repository.ProductRepository,
	analyticsRepo repository.AnalyticsRepository,
) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{
		productRepo:   productRepo,
		analyticsRepo: analyticsRepo,
	}
}

// LowStock devuelve los productos activos con stock <= min_stock ordenados por prioridad (1 = más urgente).
func (uc *ReplenishmentUseCase) LowStock(ctx context.Context, companyID string) ([]dto.LowStockItemDTO, error) {
	products, _, err := uc.productRepo.List(ctx, companyID, repository.ProductFilter{LowStockOnly: true, ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return []dto.LowStockItemDTO{}, nil
	}

	end := time.Now()
	start := end.AddDate(0, 0, -salesWindowDays)
	sold, err := uc.analyticsRepo.TopProducts(ctx, companyID, start, end, 0)
	if err != nil {
		return nil, err
	}
	soldByID := make(map[string]int, len(sold))
	for _, s := range sold {
		soldByID[s.ProductID] = s.Quantity
	}

	items := make([]dto.LowStockItemDTO, 0, len(products))
	for _, p := range products {
		// stock ideal: el doble del umbral, o lo vendido en la ventana si es mayor
		ideal := p.MinStock * 2
		if s := soldByID[p.ID]; s > ideal {
			ideal = s
		}
		suggested := ideal - p.Stock
		if suggested < 0 {
			suggested = 0
		}
		items = append(items, dto.LowStockItemDTO{
			ProductID:          p.ID,
			SKU:                p.SKU,
			Name:               p.Name,
			SupplierID:         p.SupplierID,
			Stock:              p.Stock,
			MinStock:           p.MinStock,
			SuggestedOrderQty:  suggested,
			EstimatedOrderCost: p.Cost.Mul(decimal.NewFromInt(int64(suggested))),
			UnitsSoldLast30d:   soldByID[p.ID],
		})
	}

	// Primero los que más venden, luego mayor déficit bajo el umbral.
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.UnitsSoldLast30d != b.UnitsSoldLast30d {
			return a.UnitsSoldLast30d > b.UnitsSoldLast30d
		}
		return a.MinStock-a.Stock > b.MinStock-b.Stock
	})
	for i := range items {
		items[i].Priority = i + 1
	}
	return items, nil
}
