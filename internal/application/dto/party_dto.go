package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerRequest alta o edición de cliente.
type CustomerRequest struct {
	Name       string `json:"name" validate:"required,min=1,max=200"`
	DocumentID string `json:"document_id"`
	Email      string `json:"email" validate:"omitempty,email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	Notes      string `json:"notes"`
}

// CustomerResponse salida de un cliente.
type CustomerResponse struct {
	ID         string    `json:"id"`
	CompanyID  string    `json:"company_id"`
	Name       string    `json:"name"`
	DocumentID string    `json:"document_id"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Address    string    `json:"address"`
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CustomerListResponse lista paginada de clientes.
type CustomerListResponse struct {
	Items []CustomerResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// EmployeeRequest alta o edición de empleado.
type EmployeeRequest struct {
	Name       string          `json:"name" validate:"required,min=1,max=200"`
	DocumentID string          `json:"document_id"`
	Position   string          `json:"position"`
	Phone      string          `json:"phone"`
	Email      string          `json:"email" validate:"omitempty,email"`
	Salary     decimal.Decimal `json:"salary"`
	HireDate   *time.Time      `json:"hire_date"`
	Status     string          `json:"status" validate:"omitempty,oneof=active inactive"`
}

// EmployeeResponse salida de un empleado.
type EmployeeResponse struct {
	ID         string          `json:"id"`
	CompanyID  string          `json:"company_id"`
	Name       string          `json:"name"`
	DocumentID string          `json:"document_id"`
	Position   string          `json:"position"`
	Phone      string          `json:"phone"`
	Email      string          `json:"email"`
	Salary     decimal.Decimal `json:"salary"`
	HireDate   *time.Time      `json:"hire_date,omitempty"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// EmployeeListResponse lista paginada de empleados.
type EmployeeListResponse struct {
	Items []EmployeeResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// SupplierRequest alta o edición de proveedor.
type SupplierRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	TaxID       string `json:"tax_id"`
	ContactName string `json:"contact_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email" validate:"omitempty,email"`
	Address     string `json:"address"`
	Notes       string `json:"notes"`
}

// SupplierResponse salida de un proveedor.
type SupplierResponse struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id"`
	Name        string    `json:"name"`
	TaxID       string    `json:"tax_id"`
	ContactName string    `json:"contact_name"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Address     string    `json:"address"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SupplierListResponse lista paginada de proveedores.
type SupplierListResponse struct {
	Items []SupplierResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
