// Package xlsx genera libros de Excel con excelize: exportación de inventario y respaldo
// completo de una empresa.
package xlsx

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/taller-api/internal/application/ports"
	"github.com/jhoicas/taller-api/internal/domain/entity"
)

// Nombres de hojas del respaldo.
const (
	SheetCustomers  = "Clientes"
	SheetEmployees  = "Empleados"
	SheetSuppliers  = "Proveedores"
	SheetProducts   = "Productos"
	SheetWorkOrders = "Ordenes"
	SheetSales      = "Ventas"
	SheetInventory  = "Inventario"
)

var _ ports.SpreadsheetExporter = (*Exporter)(nil)

// Exporter implementa ports.SpreadsheetExporter.
type Exporter struct{}

// NewExporter construye el exportador.
func NewExporter() *Exporter { return &Exporter{} }

// sheet columnas y filas de una hoja.
type sheet struct {
	name    string
	headers []string
	widths  []float64
	rows    [][]any
}

// InventoryWorkbook una hoja con el inventario valorizado a costo promedio.
func (e *Exporter) InventoryWorkbook(products []*entity.Product) ([]byte, error) {
	s := sheet{
		name:    SheetInventory,
		headers: []string{"SKU", "Nombre", "Categoría", "Stock", "Stock mínimo", "Costo promedio", "Precio", "Valor inventario", "Stock bajo", "Activo"},
		widths:  []float64{14, 32, 18, 10, 12, 16, 14, 18, 11, 9},
	}
	for _, p := range products {
		value := p.Cost.Mul(decimal.NewFromInt(int64(p.Stock)))
		s.rows = append(s.rows, []any{
			p.SKU, p.Name, p.Category, p.Stock, p.MinStock,
			money(p.Cost), money(p.Price), money(value),
			yesNo(p.IsLowStock()), yesNo(p.Active),
		})
	}
	return build([]sheet{s})
}

// BackupWorkbook una hoja por entidad de la empresa.
func (e *Exporter) BackupWorkbook(d ports.BackupData) ([]byte, error) {
	sheets := []sheet{
		customersSheet(d.Customers),
		employeesSheet(d.Employees),
		suppliersSheet(d.Suppliers),
		productsSheet(d.Products),
		workOrdersSheet(d.WorkOrders),
		salesSheet(d.Sales),
	}
	return build(sheets)
}

func customersSheet(list []*entity.Customer) sheet {
	s := sheet{
		name:    SheetCustomers,
		headers: []string{"ID", "Nombre", "Documento", "Email", "Teléfono", "Dirección", "Notas", "Creado"},
		widths:  []float64{38, 28, 16, 26, 16, 28, 28, 18},
	}
	for _, c := range list {
		s.rows = append(s.rows, []any{c.ID, c.Name, c.DocumentID, c.Email, c.Phone, c.Address, c.Notes, stamp(c.CreatedAt)})
	}
	return s
}

func employeesSheet(list []*entity.Employee) sheet {
	s := sheet{
		name:    SheetEmployees,
		headers: []string{"ID", "Nombre", "Documento", "Cargo", "Teléfono", "Email", "Salario", "Ingreso", "Estado"},
		widths:  []float64{38, 28, 16, 18, 16, 26, 14, 12, 10},
	}
	for _, e := range list {
		hire := ""
		if e.HireDate != nil {
			hire = e.HireDate.Format("2006-01-02")
		}
		s.rows = append(s.rows, []any{e.ID, e.Name, e.DocumentID, e.Position, e.Phone, e.Email, money(e.Salary), hire, e.Status})
	}
	return s
}

func suppliersSheet(list []*entity.Supplier) sheet {
	s := sheet{
		name:    SheetSuppliers,
		headers: []string{"ID", "Nombre", "NIT", "Contacto", "Teléfono", "Email", "Dirección", "Notas"},
		widths:  []float64{38, 28, 16, 22, 16, 26, 28, 28},
	}
	for _, p := range list {
		s.rows = append(s.rows, []any{p.ID, p.Name, p.TaxID, p.ContactName, p.Phone, p.Email, p.Address, p.Notes})
	}
	return s
}

func productsSheet(list []*entity.Product) sheet {
	s := sheet{
		name:    SheetProducts,
		headers: []string{"ID", "SKU", "Nombre", "Descripción", "Categoría", "Proveedor", "Precio", "Costo", "Stock", "Stock mínimo", "Activo"},
		widths:  []float64{38, 14, 28, 32, 16, 38, 14, 14, 9, 12, 9},
	}
	for _, p := range list {
		s.rows = append(s.rows, []any{
			p.ID, p.SKU, p.Name, p.Description, p.Category, deref(p.SupplierID),
			money(p.Price), money(p.Cost), p.Stock, p.MinStock, yesNo(p.Active),
		})
	}
	return s
}

func workOrdersSheet(list []*entity.WorkOrder) sheet {
	s := sheet{
		name: SheetWorkOrders,
		headers: []string{"Número", "Cliente", "Técnico", "Equipo", "Marca", "Modelo", "Serial", "Falla", "Diagnóstico",
			"Costo estimado", "Costo final", "Abono", "Estado", "Prometida", "Entregada", "Creada"},
		widths: []float64{12, 38, 38, 14, 14, 14, 18, 32, 32, 14, 14, 12, 12, 12, 18, 18},
	}
	for _, o := range list {
		s.rows = append(s.rows, []any{
			o.Number, o.CustomerID, deref(o.TechnicianID), o.DeviceType, o.Brand, o.Model, o.SerialNumber,
			o.ReportedIssue, o.Diagnosis, money(o.EstimatedCost), money(o.FinalCost), money(o.AdvancePayment),
			o.Status, dateOrEmpty(o.PromisedAt), stampOrEmpty(o.DeliveredAt), stamp(o.CreatedAt),
		})
	}
	return s
}

func salesSheet(list []*entity.Sale) sheet {
	s := sheet{
		name: SheetSales,
		headers: []string{"Número", "Fecha", "Cliente", "Vendedor", "Medio de pago", "Productos",
			"Subtotal", "Descuento", "Total", "Estado", "Motivo anulación"},
		widths: []float64{12, 18, 38, 38, 14, 48, 14, 12, 14, 12, 28},
	}
	for _, v := range list {
		s.rows = append(s.rows, []any{
			v.Number, stamp(v.CreatedAt), deref(v.CustomerID), v.UserID, v.PaymentMethod, itemsSummary(v.Items),
			money(v.Subtotal), money(v.Discount), money(v.Total), v.Status, v.CancelReason,
		})
	}
	return s
}

func build(sheets []sheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#00467F"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("xlsx: estilo: %w", err)
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return nil, fmt.Errorf("xlsx: hoja %s: %w", s.name, err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return nil, fmt.Errorf("xlsx: hoja %s: %w", s.name, err)
		}
		if err := writeSheet(f, s, header); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: escribir libro: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, s sheet, headerStyle int) error {
	for c, h := range s.headers {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := f.SetCellValue(s.name, cell, h); err != nil {
			return fmt.Errorf("xlsx: %s!%s: %w", s.name, cell, err)
		}
	}
	for r, values := range s.rows {
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(s.name, cell, v); err != nil {
				return fmt.Errorf("xlsx: %s!%s: %w", s.name, cell, err)
			}
		}
	}
	for c, w := range s.widths {
		colName, _ := excelize.ColumnNumberToName(c + 1)
		_ = f.SetColWidth(s.name, colName, colName, w)
	}
	last, _ := excelize.CoordinatesToCellName(len(s.headers), 1)
	_ = f.SetCellStyle(s.name, "A1", last, headerStyle)
	return f.SetPanes(s.name, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func yesNo(b bool) string {
	if b {
		return "Sí"
	}
	return "No"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

func stampOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return stamp(*t)
}

func dateOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func itemsSummary(items []entity.SaleItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%dx %s", it.Quantity, it.ProductName))
	}
	return strings.Join(parts, "; ")
}
