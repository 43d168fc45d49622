package repository

import "time"

// ListFilter filtro común de listados: búsqueda libre y paginación.
// Limit <= 0 significa sin límite (exportaciones y respaldos).
type ListFilter struct {
	Query  string
	Limit  int
	Offset int
}

// ProductFilter filtro del listado de productos.
type ProductFilter struct {
	ListFilter
	Category     string
	SupplierID   string
	LowStockOnly bool
	ActiveOnly   bool
}

// MovementFilter filtro del kardex de inventario.
type MovementFilter struct {
	ProductID string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// WorkOrderFilter filtro del listado de órdenes.
type WorkOrderFilter struct {
	ListFilter
	Status       string
	CustomerID   string
	TechnicianID string
}

// SaleFilter filtro del listado de ventas.
type SaleFilter struct {
	From       *time.Time
	To         *time.Time
	Status     string
	CustomerID string
	Limit      int
	Offset     int
}

// NotificationFilter filtro del feed de notificaciones de un usuario.
type NotificationFilter struct {
	UserID     string
	UnreadOnly bool
	Limit      int
	Offset     int
}
