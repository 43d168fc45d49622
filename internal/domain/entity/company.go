package entity

import "time"

// Estados de una empresa (tenant).
const (
	CompanyStatusActive    = "active"
	CompanyStatusSuspended = "suspended"
)

// Company representa una empresa/tenant del sistema. Todos los datos de negocio cuelgan de ella.
type Company struct {
	ID        string
	Name      string
	TaxID     string // NIT / RUT / documento fiscal, único en el sistema
	Address   string
	Phone     string
	Email     string
	LogoURL   string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
