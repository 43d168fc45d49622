package ports

import (
	"context"

	"github.com/jhoicas/taller-api/internal/domain/entity"
)

// ReceiptData datos para el recibo PDF de una venta.
type ReceiptData struct {
	Company  *entity.Company
	Branding entity.BrandingSettings
	Sale     *entity.Sale
	Customer *entity.Customer // nil = consumidor final
	Seller   string
}

// TicketData datos para el comprobante PDF de recepción de una orden de trabajo.
type TicketData struct {
	Company    *entity.Company
	Branding   entity.BrandingSettings
	Order      *entity.WorkOrder
	Customer   *entity.Customer
	Technician *entity.Employee // nil = sin asignar
}

// DocumentRenderer genera los PDF que se entregan al cliente.
type DocumentRenderer interface {
	SaleReceipt(ctx context.Context, data ReceiptData) ([]byte, error)
	WorkOrderTicket(ctx context.Context, data TicketData) ([]byte, error)
}

// BackupData contenido completo de una empresa para el respaldo en hoja de cálculo.
type BackupData struct {
	Company    *entity.Company
	Customers  []*entity.Customer
	Employees  []*entity.Employee
	Suppliers  []*entity.Supplier
	Products   []*entity.Product
	WorkOrders []*entity.WorkOrder
	Sales      []*entity.Sale
}

// SpreadsheetExporter genera libros XLSX.
type SpreadsheetExporter interface {
	InventoryWorkbook(products []*entity.Product) ([]byte, error)
	BackupWorkbook(data BackupData) ([]byte, error)
}
