package xlsx

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/taller-api/internal/application/ports"
	"github.com/jhoicas/taller-api/internal/domain/entity"
)

func open(t *testing.T, b []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestInventoryWorkbook(t *testing.T) {
	b, err := NewExporter().InventoryWorkbook([]*entity.Product{
		{SKU: "CAR-01", Name: "Cargador", Stock: 3, MinStock: 5, Cost: decimal.NewFromInt(12000), Price: decimal.NewFromInt(25000), Active: true},
	})
	require.NoError(t, err)

	f := open(t, b)
	assert.Equal(t, []string{SheetInventory}, f.GetSheetList())
	rows, err := f.GetRows(SheetInventory)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "SKU", rows[0][0])
	assert.Equal(t, "CAR-01", rows[1][0])
	assert.Equal(t, "36000", rows[1][7])
	assert.Equal(t, "Sí", rows[1][8])
}

func TestBackupWorkbook_HojasYFilas(t *testing.T) {
	tech := "e1"
	b, err := NewExporter().BackupWorkbook(ports.BackupData{
		Company:   &entity.Company{ID: "c1", Name: "Taller"},
		Customers: []*entity.Customer{{ID: "cu1", Name: "Carlos"}, {ID: "cu2", Name: "Lucía"}},
		Employees: []*entity.Employee{{ID: "e1", Name: "Pedro", Salary: decimal.NewFromInt(1300000), Status: entity.EmployeeStatusActive}},
		Products:  []*entity.Product{{ID: "p1", SKU: "A", Name: "Pantalla"}},
		WorkOrders: []*entity.WorkOrder{{
			Number: "OT-000001", CustomerID: "cu1", TechnicianID: &tech, DeviceType: "Celular",
			Status: entity.WorkOrderPending, CreatedAt: time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC),
		}},
		Sales: []*entity.Sale{{
			Number: "V-000001", UserID: "u1", Status: entity.SaleStatusCompleted, Total: decimal.NewFromInt(50000),
			Items: []entity.SaleItem{{ProductName: "Cargador", Quantity: 2}, {ProductName: "Forro", Quantity: 1}},
		}},
	})
	require.NoError(t, err)

	f := open(t, b)
	assert.Equal(t, []string{SheetCustomers, SheetEmployees, SheetSuppliers, SheetProducts, SheetWorkOrders, SheetSales}, f.GetSheetList())

	rows, err := f.GetRows(SheetCustomers)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rows, err = f.GetRows(SheetSuppliers)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "solo encabezado")

	rows, err = f.GetRows(SheetWorkOrders)
	require.NoError(t, err)
	assert.Equal(t, "e1", rows[1][2])

	cell, err := f.GetCellValue(SheetSales, "F2")
	require.NoError(t, err)
	assert.Equal(t, "2x Cargador; 1x Forro", cell)
}
