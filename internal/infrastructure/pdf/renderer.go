// Package pdf genera los documentos que se entregan al cliente con Maroto v2:
// recibo de venta y comprobante de recepción de una orden de trabajo.
//
// Layout común (A4):
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  Nombre comercial + NIT      │  Tipo de documento + número  │
//	│  Dirección / Tel / Email                                    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  Cliente                                                    │
//	│  Cuerpo (ítems o datos del equipo)                          │
//	│  Totales                                                    │
//	│  Pie (texto de branding)                                    │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/taller-api/internal/application/ports"
	"github.com/jhoicas/taller-api/internal/domain/entity"
)

var (
	colorGray  = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite = &props.Color{Red: 255, Green: 255, Blue: 255}
)

var _ ports.DocumentRenderer = (*Renderer)(nil)

// Renderer implementa ports.DocumentRenderer.
type Renderer struct{}

// NewRenderer construye el generador.
func NewRenderer() *Renderer { return &Renderer{} }

// SaleReceipt recibo de una venta con sus ítems y totales.
func (r *Renderer) SaleReceipt(ctx context.Context, data ports.ReceiptData) ([]byte, error) {
	if data.Sale == nil || data.Company == nil {
		return nil, fmt.Errorf("pdf: recibo sin venta o empresa")
	}
	t := newTheme(data.Branding, data.Company)
	m := newDocument(t, "Recibo "+data.Sale.Number)

	m.AddRows(headerRow(t, data.Company, "RECIBO DE VENTA", data.Sale.Number, data.Sale.CreatedAt))
	if data.Branding.ReceiptHeader != "" {
		m.AddRows(noteRow(data.Branding.ReceiptHeader))
	}
	m.AddRows(line.NewRow(1, props.Line{Color: t.primary, Thickness: 0.5}))
	m.AddRows(customerRow(t, data.Customer))
	if data.Sale.Status == entity.SaleStatusCancelled {
		m.AddRows(cancelledRow(data.Sale.CancelReason))
	}
	m.AddRows(line.NewRow(1, props.Line{Color: t.primary, Thickness: 0.3}))

	m.AddRows(itemsHeaderRow(t))
	m.AddRows(itemRows(t, data.Sale.Items)...)
	m.AddRows(line.NewRow(1, props.Line{Color: t.primary, Thickness: 0.3}))
	m.AddRows(saleTotalsRow(t, data.Sale))
	m.AddRows(paymentRow(data.Sale, data.Seller))

	m.AddRows(footerRows(t.footer)...)
	return generate(ctx, m)
}

// WorkOrderTicket comprobante de recepción de un equipo.
func (r *Renderer) WorkOrderTicket(ctx context.Context, data ports.TicketData) ([]byte, error) {
	if data.Order == nil || data.Company == nil {
		return nil, fmt.Errorf("pdf: ticket sin orden o empresa")
	}
	t := newTheme(data.Branding, data.Company)
	m := newDocument(t, "Orden "+data.Order.Number)

	m.AddRows(headerRow(t, data.Company, "ORDEN DE TRABAJO", data.Order.Number, data.Order.CreatedAt))
	m.AddRows(line.NewRow(1, props.Line{Color: t.primary, Thickness: 0.5}))
	m.AddRows(customerRow(t, data.Customer))
	m.AddRows(line.NewRow(1, props.Line{Color: t.primary, Thickness: 0.3}))
	m.AddRows(deviceRows(t, data.Order, data.Technician)...)
	m.AddRows(line.NewRow(1, props.Line{Color: t.primary, Thickness: 0.3}))
	m.AddRows(orderTotalsRow(t, data.Order))
	m.AddRows(orderQRRow(t, data.Order))
	m.AddRows(signatureRow())

	m.AddRows(footerRows(t.footer)...)
	return generate(ctx, m)
}

func newDocument(t theme, title string) core.Maroto {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(title, true).
		WithAuthor(t.businessName, true).
		Build()
	return maroto.New(cfg)
}

func generate(ctx context.Context, m core.Maroto) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}
