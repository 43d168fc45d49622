package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de empleado.
const (
	EmployeeStatusActive   = "active"
	EmployeeStatusInactive = "inactive"
)

// Employee representa un empleado de la empresa (técnico, vendedor, administrativo).
// No necesariamente tiene usuario en el sistema.
type Employee struct {
	ID         string
	CompanyID  string
	Name       string
	DocumentID string
	Position   string
	Phone      string
	Email      string
	Salary     decimal.Decimal
	HireDate   *time.Time
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
