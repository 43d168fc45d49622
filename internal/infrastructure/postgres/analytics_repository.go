package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
)

var _ repository.AnalyticsRepository = (*AnalyticsRepo)(nil)

// AnalyticsRepo consultas de solo lectura para el dashboard y la reposición.
type AnalyticsRepo struct {
	q Querier
}

// NewAnalyticsRepository construye el adaptador de analítica.
func NewAnalyticsRepository(q Querier) *AnalyticsRepo {
	return &AnalyticsRepo{q: q}
}

// SalesTotals cuenta y suma las ventas completadas en [from, to).
func (r *AnalyticsRepo) SalesTotals(ctx context.Context, companyID string, from, to time.Time) (int, decimal.Decimal, error) {
	const query = `
	SELECT count(*), COALESCE(sum(total), 0)
	FROM sales
	WHERE company_id = $1
	  AND status = $2
	  AND created_at >= $3 AND created_at < $4`
	var (
		count int
		total decimal.Decimal
	)
	if err := r.q.QueryRow(ctx, query, companyID, entity.SaleStatusCompleted, from, to).Scan(&count, &total); err != nil {
		return 0, decimal.Zero, fmt.Errorf("analytics.SalesTotals: %w", err)
	}
	return count, total, nil
}

// TopProducts productos más vendidos por unidades en [from, to). limit <= 0 devuelve todos.
func (r *AnalyticsRepo) TopProducts(ctx context.Context, companyID string, from, to time.Time, limit int) ([]repository.ProductSales, error) {
	const query = `
	SELECT
	    si.product_id,
	    p.sku,
	    p.name,
	    SUM(si.quantity)  AS units,
	    SUM(si.subtotal)  AS revenue
	FROM sale_items si
	JOIN sales    s ON s.id = si.sale_id
	JOIN products p ON p.id = si.product_id
	WHERE s.company_id = $1
	  AND s.status = $2
	  AND s.created_at >= $3 AND s.created_at < $4
	GROUP BY si.product_id, p.sku, p.name
	ORDER BY units DESC, revenue DESC
	LIMIT $5`

	rows, err := r.q.Query(ctx, query, companyID, entity.SaleStatusCompleted, from, to, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("analytics.TopProducts: %w", err)
	}
	defer rows.Close()

	var results []repository.ProductSales
	for rows.Next() {
		var row repository.ProductSales
		if err := rows.Scan(&row.ProductID, &row.SKU, &row.ProductName, &row.Quantity, &row.Revenue); err != nil {
			return nil, fmt.Errorf("analytics.TopProducts scan: %w", err)
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// CountLowStock productos activos en o por debajo del mínimo.
func (r *AnalyticsRepo) CountLowStock(ctx context.Context, companyID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT count(*) FROM products WHERE company_id = $1 AND active AND stock <= min_stock`, companyID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("analytics.CountLowStock: %w", err)
	}
	return n, nil
}

// WorkOrdersByStatus cantidad de órdenes por estado.
func (r *AnalyticsRepo) WorkOrdersByStatus(ctx context.Context, companyID string) (map[string]int, error) {
	rows, err := r.q.Query(ctx,
		`SELECT status, count(*) FROM work_orders WHERE company_id = $1 GROUP BY status`, companyID)
	if err != nil {
		return nil, fmt.Errorf("analytics.WorkOrdersByStatus: %w", err)
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("analytics.WorkOrdersByStatus scan: %w", err)
		}
		out[status] = n
	}
	return out, rows.Err()
}
