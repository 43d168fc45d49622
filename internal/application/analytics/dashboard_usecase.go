// Package analytics contiene el resumen del dashboard: ventas del día y del mes,
// órdenes abiertas, stock bajo y productos más vendidos.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/taller-api/internal/application/dto"
	"github.com/jhoicas/taller-api/internal/application/ports"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
)

const (
	dashboardTopProducts = 5 // número de productos en el widget del dashboard
	dashboardTTL         = 60 * time.Second
)

// DashboardUseCase genera el resumen del día y del mes en curso.
//
// Fuente de datos: AnalyticsRepository (consultas read-only). El resultado se cachea por empresa.
type DashboardUseCase struct {
	analyticsRepo repository.AnalyticsRepository
	cache         ports.Cache
	now           func() time.Time
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(analyticsRepo repository.AnalyticsRepository, cache ports.Cache) *DashboardUseCase {
	return &DashboardUseCase{analyticsRepo: analyticsRepo, cache: cache, now: time.Now}
}

// GetSummary construye el DashboardSummaryDTO para la empresa indicada.
//
// Cinco consultas en paralelo:
//  1. SalesTotals(hoy)           → TodaySalesCount / TodaySalesTotal
//  2. SalesTotals(mes)           → MonthSalesCount / MonthSalesTotal
//  3. WorkOrdersByStatus         → OpenWorkOrders
//  4. CountLowStock              → LowStockProducts
//  5. TopProducts(mes, top 5)    → TopProducts
func (uc *DashboardUseCase) GetSummary(ctx context.Context, companyID string) (*dto.DashboardSummaryDTO, error) {
	key := "dashboard:" + companyID
	if b, err := uc.cache.Get(ctx, key); err == nil {
		var cached dto.DashboardSummaryDTO
		if json.Unmarshal(b, &cached) == nil {
			return &cached, nil
		}
	}

	now := uc.now()

	// ── Rangos de fecha [desde, hasta) ─────────────────────────────────────────
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	todayEnd := todayStart.AddDate(0, 0, 1)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	out := &dto.DashboardSummaryDTO{DateLabel: monthLabel(now)}
	var (
		byStatus map[string]int
		top      []repository.ProductSales
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.TodaySalesCount, out.TodaySalesTotal, err = uc.analyticsRepo.SalesTotals(gctx, companyID, todayStart, todayEnd)
		if err != nil {
			return fmt.Errorf("dashboard: ventas de hoy: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		out.MonthSalesCount, out.MonthSalesTotal, err = uc.analyticsRepo.SalesTotals(gctx, companyID, monthStart, todayEnd)
		if err != nil {
			return fmt.Errorf("dashboard: ventas del mes: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if byStatus, err = uc.analyticsRepo.WorkOrdersByStatus(gctx, companyID); err != nil {
			return fmt.Errorf("dashboard: órdenes: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if out.LowStockProducts, err = uc.analyticsRepo.CountLowStock(gctx, companyID); err != nil {
			return fmt.Errorf("dashboard: stock bajo: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if top, err = uc.analyticsRepo.TopProducts(gctx, companyID, monthStart, todayEnd, dashboardTopProducts); err != nil {
			return fmt.Errorf("dashboard: top productos: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.TodaySalesTotal = out.TodaySalesTotal.Round(2)
	out.MonthSalesTotal = out.MonthSalesTotal.Round(2)
	out.OpenWorkOrders = openOrders(byStatus)
	out.TopProducts = make([]dto.TopProductDTO, 0, len(top))
	for _, p := range top {
		out.TopProducts = append(out.TopProducts, dto.TopProductDTO{
			ProductID:    p.ProductID,
			SKU:          p.SKU,
			ProductName:  p.ProductName,
			QuantitySold: p.Quantity,
			Revenue:      p.Revenue.Round(2),
		})
	}

	if b, err := json.Marshal(out); err == nil {
		_ = uc.cache.Set(ctx, key, b, dashboardTTL)
	}
	return out, nil
}

// Invalidate descarta el resumen cacheado (tras ventas u órdenes nuevas).
func (uc *DashboardUseCase) Invalidate(ctx context.Context, companyID string) {
	_ = uc.cache.Delete(ctx, "dashboard:"+companyID)
}

// openOrders deja solo los estados abiertos, con cero para los que no tienen órdenes.
func openOrders(byStatus map[string]int) map[string]int {
	out := map[string]int{
		entity.WorkOrderPending:    0,
		entity.WorkOrderInProgress: 0,
		entity.WorkOrderFinished:   0,
	}
	for k := range out {
		out[k] = byStatus[k]
	}
	return out
}

// monthLabel devuelve una etiqueta legible del mes, ej: "Febrero 2026".
func monthLabel(t time.Time) string {
	months := [...]string{
		"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
	}
	return fmt.Sprintf("%s %d", months[t.Month()-1], t.Year())
}

