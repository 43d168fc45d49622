package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ProductSales unidades e ingreso de un producto en un período.
type ProductSales struct {
	ProductID   string
	SKU         string
	ProductName string
	Quantity    int
	Revenue     decimal.Decimal
}

// AnalyticsRepository consultas de solo lectura para el dashboard.
type AnalyticsRepository interface {
	// SalesTotals cuenta y suma las ventas completadas del período [from, to).
	SalesTotals(ctx context.Context, companyID string, from, to time.Time) (count int, total decimal.Decimal, err error)
	TopProducts(ctx context.Context, companyID string, from, to time.Time, limit int) ([]ProductSales, error)
	CountLowStock(ctx context.Context, companyID string) (int, error)
	WorkOrdersByStatus(ctx context.Context, companyID string) (map[string]int, error)
}
