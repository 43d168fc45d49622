package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-api/internal/application/ports"
	"github.com/jhoicas/taller-api/internal/domain/entity"
)

func testCompany() *entity.Company {
	return &entity.Company{ID: "c1", Name: "Taller La 14", TaxID: "900123456", Phone: "6041234567"}
}

func TestSaleReceipt_GeneraPDF(t *testing.T) {
	sale := &entity.Sale{
		Number:        "V-000012",
		PaymentMethod: entity.PaymentCash,
		Subtotal:      decimal.NewFromInt(150000),
		Discount:      decimal.NewFromInt(10000),
		Total:         decimal.NewFromInt(140000),
		Paid:          decimal.NewFromInt(150000),
		Change:        decimal.NewFromInt(10000),
		Status:        entity.SaleStatusCompleted,
		CreatedAt:     time.Date(2026, 3, 2, 15, 4, 0, 0, time.UTC),
		Items: []entity.SaleItem{
			{ProductName: "Cargador USB-C", Quantity: 2, UnitPrice: decimal.NewFromInt(25000), Subtotal: decimal.NewFromInt(50000)},
			{ProductName: "Vidrio templado", Quantity: 4, UnitPrice: decimal.NewFromInt(25000), Subtotal: decimal.NewFromInt(100000)},
		},
	}
	b, err := NewRenderer().SaleReceipt(context.Background(), ports.ReceiptData{
		Company:  testCompany(),
		Branding: entity.DefaultBranding("Taller La 14"),
		Sale:     sale,
		Seller:   "Ana",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF")))
}

func TestWorkOrderTicket_GeneraPDF(t *testing.T) {
	promised := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	order := &entity.WorkOrder{
		Number:         "OT-000007",
		DeviceType:     "Celular",
		Brand:          "Samsung",
		Model:          "A52",
		ReportedIssue:  "No carga",
		EstimatedCost:  decimal.NewFromInt(80000),
		AdvancePayment: decimal.NewFromInt(20000),
		Status:         entity.WorkOrderPending,
		PromisedAt:     &promised,
		CreatedAt:      time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	b, err := NewRenderer().WorkOrderTicket(context.Background(), ports.TicketData{
		Company:  testCompany(),
		Branding: entity.BrandingSettings{PrimaryColor: "#AA3300"},
		Order:    order,
		Customer: &entity.Customer{Name: "Carlos", Phone: "3001234567"},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF")))
}

func TestRenderer_DatosIncompletos(t *testing.T) {
	_, err := NewRenderer().SaleReceipt(context.Background(), ports.ReceiptData{})
	assert.Error(t, err)
	_, err = NewRenderer().WorkOrderTicket(context.Background(), ports.TicketData{Company: testCompany()})
	assert.Error(t, err)
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$ 1.250.000", formatMoney(decimal.NewFromInt(1250000), "COP"))
	assert.Equal(t, "$ 1.250.000", formatMoney(decimal.RequireFromString("1249999.6"), ""))
	assert.Equal(t, "$ 1.250.000,50", formatMoney(decimal.RequireFromString("1250000.5"), "USD"))
}

func TestParseHexColor(t *testing.T) {
	c := parseHexColor("#AA3300")
	assert.Equal(t, 170, c.Red)
	assert.Equal(t, 51, c.Green)
	assert.Equal(t, 0, c.Blue)
	assert.Equal(t, 70, parseHexColor("zz").Green)
}
