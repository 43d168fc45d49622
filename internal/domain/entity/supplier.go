package entity

import "time"

// Supplier representa un proveedor de repuestos o mercancía.
type Supplier struct {
	ID          string
	CompanyID   string
	Name        string
	TaxID       string
	ContactName string
	Phone       string
	Email       string
	Address     string
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
