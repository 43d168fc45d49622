package entity

import "time"

// Customer representa un cliente del taller o del punto de venta.
type Customer struct {
	ID         string
	CompanyID  string
	Name       string
	DocumentID string // cédula / NIT; opcional, único por empresa cuando existe
	Email      string
	Phone      string
	Address    string
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
