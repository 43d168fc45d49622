package pdf

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/taller-api/internal/application/notify"
	"github.com/jhoicas/taller-api/internal/domain/entity"
)

// theme valores de branding ya resueltos para el documento.
type theme struct {
	primary      *props.Color
	businessName string
	currency     string
	footer       string
}

func newTheme(b entity.BrandingSettings, company *entity.Company) theme {
	name := b.BusinessName
	if name == "" {
		name = company.Name
	}
	return theme{
		primary:      parseHexColor(b.PrimaryColor),
		businessName: name,
		currency:     b.Currency,
		footer:       b.ReceiptFooter,
	}
}

// parseHexColor convierte "#RRGGBB"; un valor inválido cae al azul por defecto.
func parseHexColor(hex string) *props.Color {
	def := &props.Color{Red: 0, Green: 70, Blue: 127}
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return def
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return def
	}
	return &props.Color{Red: int(v >> 16 & 0xff), Green: int(v >> 8 & 0xff), Blue: int(v & 0xff)}
}

// headerRow: nombre comercial + NIT (izq) y tipo de documento + número + fecha (der).
func headerRow(t theme, company *entity.Company, title, number string, date time.Time) core.Row {
	return row.New(24).Add(
		col.New(7).Add(
			text.New(t.businessName, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: t.primary, Top: 1,
			}),
			text.New("NIT: "+nonEmpty(company.TaxID, "—"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
			text.New(fmt.Sprintf("%s   |   Tel: %s   |   %s",
				nonEmpty(company.Address, "—"),
				nonEmpty(company.Phone, "—"),
				nonEmpty(company.Email, "—"),
			), props.Text{Size: 7, Top: 15, Color: colorGray}),
		),
		col.New(5).Add(
			text.New(title, props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: t.primary, Top: 1,
			}),
			text.New(number, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+date.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func noteRow(s string) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New(s, props.Text{Size: 8, Top: 1, Align: align.Center, Color: colorGray}),
	))
}

func customerRow(t theme, c *entity.Customer) core.Row {
	name, details := "Consumidor final", "—"
	if c != nil {
		name = c.Name
		details = fmt.Sprintf("Doc: %s   |   Tel: %s   |   Email: %s",
			nonEmpty(c.DocumentID, "—"), nonEmpty(c.Phone, "—"), nonEmpty(c.Email, "—"))
	}
	return row.New(14).Add(col.New(12).Add(
		text.New("CLIENTE", props.Text{Style: fontstyle.Bold, Size: 8, Color: t.primary, Top: 1}),
		text.New(name, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
		text.New(details, props.Text{Size: 8, Top: 11, Color: colorGray}),
	))
}

func cancelledRow(reason string) core.Row {
	red := &props.Color{Red: 180, Green: 20, Blue: 20}
	return row.New(8).Add(col.New(12).Add(
		text.New("VENTA ANULADA: "+nonEmpty(reason, "sin motivo"), props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Center, Color: red, Top: 2,
		}),
	))
}

func itemsHeaderRow(t theme) core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).WithStyle(&props.Cell{BackgroundColor: t.primary}).Add(
		h("Cant.", 1, align.Center),
		h("Producto", 6, align.Left),
		h("Precio unit.", 2, align.Right),
		h("Subtotal", 3, align.Right),
	)
}

func itemRows(t theme, items []entity.SaleItem) []core.Row {
	rows := make([]core.Row, 0, len(items))
	for _, it := range items {
		rows = append(rows, row.New(7).Add(
			col.New(1).Add(text.New(strconv.Itoa(it.Quantity), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(6).Add(text.New(it.ProductName, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(formatMoney(it.UnitPrice, t.currency), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(3).Add(text.New(formatMoney(it.Subtotal, t.currency), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return rows
}

// totalsBlock bloque de totales alineado a la derecha; la última línea va resaltada.
func totalsBlock(t theme, labels, values []string) core.Row {
	labelCol := col.New(3)
	valueCol := col.New(3)
	for i := range labels {
		last := i == len(labels)-1
		lp := props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: float64(i * 5)}
		vp := props.Text{Size: 9, Align: align.Right, Right: 1, Top: float64(i * 5)}
		if last {
			lp.Size, lp.Color = 10, t.primary
			vp.Size, vp.Color, vp.Style = 10, t.primary, fontstyle.Bold
		}
		labelCol.Add(text.New(labels[i], lp))
		valueCol.Add(text.New(values[i], vp))
	}
	return row.New(float64(len(labels)*5 + 4)).Add(col.New(3), labelCol, valueCol, col.New(3))
}

func saleTotalsRow(t theme, s *entity.Sale) core.Row {
	labels := []string{"Subtotal:"}
	values := []string{formatMoney(s.Subtotal, t.currency)}
	if s.Discount.IsPositive() {
		labels = append(labels, "Descuento:")
		values = append(values, "-"+formatMoney(s.Discount, t.currency))
	}
	labels = append(labels, "TOTAL:")
	values = append(values, formatMoney(s.Total, t.currency))
	return totalsBlock(t, labels, values)
}

func paymentRow(s *entity.Sale, seller string) core.Row {
	line := "Medio de pago: " + paymentLabel(s.PaymentMethod)
	if s.Paid.IsPositive() {
		line += fmt.Sprintf("   |   Recibido: %s   |   Cambio: %s", formatMoney(s.Paid, ""), formatMoney(s.Change, ""))
	}
	if seller != "" {
		line += "   |   Atendido por: " + seller
	}
	return row.New(8).Add(col.New(12).Add(text.New(line, props.Text{Size: 8, Top: 2, Color: colorGray})))
}

func paymentLabel(m string) string {
	switch m {
	case entity.PaymentCash:
		return "Efectivo"
	case entity.PaymentCard:
		return "Tarjeta"
	case entity.PaymentTransfer:
		return "Transferencia"
	}
	return m
}

func deviceRows(t theme, o *entity.WorkOrder, tech *entity.Employee) []core.Row {
	field := func(label, value string) core.Col {
		return col.New(6).Add(
			text.New(label, props.Text{Style: fontstyle.Bold, Size: 7, Color: t.primary, Top: 1}),
			text.New(nonEmpty(value, "—"), props.Text{Size: 9, Top: 5}),
		)
	}
	technician := "Sin asignar"
	if tech != nil {
		technician = tech.Name
	}
	promised := ""
	if o.PromisedAt != nil {
		promised = o.PromisedAt.Format("02/01/2006")
	}
	device := strings.TrimSpace(strings.Join([]string{o.DeviceType, o.Brand, o.Model}, " "))
	rows := []core.Row{
		row.New(11).Add(field("EQUIPO", device), field("SERIAL / IMEI", o.SerialNumber)),
		row.New(11).Add(field("ESTADO", notify.StatusLabel(o.Status)), field("TÉCNICO", technician)),
		row.New(11).Add(field("FECHA PROMETIDA", promised), field("RECIBIDO", o.CreatedAt.Format("02/01/2006 15:04"))),
		paragraphRow(t, "FALLA REPORTADA", o.ReportedIssue),
	}
	if o.Diagnosis != "" {
		rows = append(rows, paragraphRow(t, "DIAGNÓSTICO", o.Diagnosis))
	}
	if o.Notes != "" {
		rows = append(rows, paragraphRow(t, "OBSERVACIONES", o.Notes))
	}
	return rows
}

func paragraphRow(t theme, label, body string) core.Row {
	height := 12 + float64(len(body)/110)*4
	return row.New(height).Add(col.New(12).Add(
		text.New(label, props.Text{Style: fontstyle.Bold, Size: 7, Color: t.primary, Top: 1}),
		text.New(body, props.Text{Size: 9, Top: 5}),
	))
}

func orderTotalsRow(t theme, o *entity.WorkOrder) core.Row {
	cost := o.FinalCost
	costLabel := "Costo final:"
	if cost.IsZero() {
		cost, costLabel = o.EstimatedCost, "Costo estimado:"
	}
	return totalsBlock(t,
		[]string{costLabel, "Abono:", "SALDO:"},
		[]string{formatMoney(cost, t.currency), formatMoney(o.AdvancePayment, t.currency), formatMoney(o.Balance(), t.currency)},
	)
}

// orderQRRow QR con el número de la orden para buscarla rápido en mostrador.
func orderQRRow(t theme, o *entity.WorkOrder) core.Row {
	return row.New(32).Add(
		col.New(3).Add(code.NewQr(o.Number, props.Rect{Percent: 90, Center: true})),
		col.New(9).Add(
			text.New("Presente este comprobante para retirar su equipo.", props.Text{
				Size: 9, Top: 6, Left: 3, Style: fontstyle.Bold, Color: t.primary,
			}),
			text.New("Los equipos no retirados en 90 días después de finalizada la reparación "+
				"podrán ser dispuestos por el taller.", props.Text{Size: 7, Top: 14, Left: 3, Color: colorGray}),
		),
	)
}

func signatureRow() core.Row {
	sig := func(label string) core.Col {
		return col.New(6).Add(
			text.New("______________________________", props.Text{Size: 9, Top: 10, Align: align.Center}),
			text.New(label, props.Text{Size: 8, Top: 15, Align: align.Center, Color: colorGray}),
		)
	}
	return row.New(22).Add(sig("Firma cliente"), sig("Recibido por"))
}

func footerRows(footer string) []core.Row {
	if footer == "" {
		return nil
	}
	return []core.Row{
		row.New(4),
		row.New(8).Add(col.New(12).Add(
			text.New(footer, props.Text{Size: 8, Align: align.Center, Color: colorGray, Top: 2}),
		)),
	}
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
