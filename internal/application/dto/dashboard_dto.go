package dto

import "github.com/shopspring/decimal"

// DashboardSummaryDTO respuesta de GET /api/dashboard/summary.
type DashboardSummaryDTO struct {
	TodaySalesCount  int             `json:"today_sales_count"`
	TodaySalesTotal  decimal.Decimal `json:"today_sales_total"`
	MonthSalesCount  int             `json:"month_sales_count"`
	MonthSalesTotal  decimal.Decimal `json:"month_sales_total"`
	OpenWorkOrders   map[string]int  `json:"open_work_orders"` // por estado, sin entregadas
	LowStockProducts int             `json:"low_stock_products"`
	TopProducts      []TopProductDTO `json:"top_products"`
	DateLabel        string          `json:"date_label"` // ej: "Octubre 2026"
}

// TopProductDTO producto más vendido del mes.
type TopProductDTO struct {
	ProductID    string          `json:"product_id"`
	SKU          string          `json:"sku"`
	ProductName  string          `json:"product_name"`
	QuantitySold int             `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}
