// Package sales orquesta las ventas de mostrador con su efecto sobre el inventario.
package sales

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/taller-api/internal/application/dto"
	"github.com/jhoicas/taller-api/internal/application/inventory"
	"github.com/jhoicas/taller-api/internal/application/ports"
	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
	"github.com/jhoicas/taller-api/internal/domain/sales"
	"github.com/jhoicas/taller-api/pkg/logger"
	"github.com/jhoicas/taller-api/pkg/telemetry"
)

// SequenceName consecutivo de ventas en company_sequences.
const SequenceName = "sale"

// Deps dependencias del caso de uso. Mailer puede ser nil si no hay SMTP.
type Deps struct {
	Tx        TxRunner
	Sales     repository.SaleRepository
	Customers repository.CustomerRepository
	Users     repository.UserRepository
	Companies repository.CompanyRepository
	Branding  BrandingSource
	Renderer  ports.DocumentRenderer
	Mailer    ports.Mailer
	Publisher ports.EventPublisher
	Log       *logger.Logger
}

// UseCase ventas de una empresa.
type UseCase struct {
	Deps
}

// NewUseCase construye el caso de uso.
func NewUseCase(d Deps) *UseCase {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	d.Log = d.Log.Component("sales")
	return &UseCase{Deps: d}
}

// Create registra una venta en una sola transacción: bloquea los productos en orden, descuenta stock
// con movimientos SALE, asigna el consecutivo V-000001 e inserta cabecera y líneas.
func (uc *UseCase) Create(ctx context.Context, companyID, userID string, in dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "sales.Create")
	defer span.End()

	if err := validateHeader(in.PaymentMethod, in.Items); err != nil {
		return nil, err
	}
	customerID, err := uc.customer(ctx, companyID, in.CustomerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sale := &entity.Sale{
		ID:            uuid.New().String(),
		CompanyID:     companyID,
		CustomerID:    customerID,
		UserID:        userID,
		PaymentMethod: in.PaymentMethod,
		Status:        entity.SaleStatusCompleted,
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	var lowStock []*entity.Product
	err = uc.Tx.RunSales(ctx, func(saleRepo repository.SaleRepository, products repository.ProductRepository, movs repository.InventoryMovementRepository, seqs repository.SequenceRepository) error {
		locked, err := lockProducts(ctx, products, companyID, requestedIDs(in.Items))
		if err != nil {
			return err
		}
		items, err := buildItems(sale.ID, in.Items, locked, nil)
		if err != nil {
			return err
		}
		if err := applyTotals(sale, items, in.Discount, in.Paid); err != nil {
			return err
		}
		n, err := seqs.Next(ctx, companyID, SequenceName)
		if err != nil {
			return err
		}
		sale.Number = fmt.Sprintf("V-%06d", n)
		if err := saleRepo.Create(ctx, sale); err != nil {
			return err
		}
		diff := sales.StockDiff(nil, sale.Items)
		lowStock, err = reconcile(ctx, products, movs, locked, diff, sale, userID, now)
		return err
	})
	if err != nil {
		fail(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("sale.number", sale.Number), attribute.String("sale.total", sale.Total.String()))

	uc.publish(ctx, saleEvent(entity.EventSaleCreated, sale, userID))
	uc.publishLowStock(ctx, lowStock, userID)
	resp := dto.ToSaleResponse(sale)
	return &resp, nil
}

// Update reemplaza las líneas y concilia el stock por diferencia en una sola transacción:
// lo que aumenta sale de bodega (SALE) y lo que disminuye vuelve (SALE_RETURN).
func (uc *UseCase) Update(ctx context.Context, companyID, userID, id string, in dto.UpdateSaleRequest) (*dto.SaleResponse, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "sales.Update")
	defer span.End()
	span.SetAttributes(attribute.String("sale.id", id))

	if err := validateHeader(in.PaymentMethod, in.Items); err != nil {
		return nil, err
	}
	customerID, err := uc.customer(ctx, companyID, in.CustomerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var (
		sale     *entity.Sale
		lowStock []*entity.Product
	)
	err = uc.Tx.RunSales(ctx, func(saleRepo repository.SaleRepository, products repository.ProductRepository, movs repository.InventoryMovementRepository, _ repository.SequenceRepository) error {
		s, err := saleRepo.GetForUpdate(ctx, companyID, id)
		if err != nil {
			return err
		}
		if s == nil {
			return domain.ErrNotFound
		}
		if s.Status == entity.SaleStatusCancelled {
			return domain.ErrSaleCancelled
		}
		oldItems := s.Items

		ids := requestedIDs(in.Items)
		for _, it := range oldItems {
			ids[it.ProductID] = struct{}{}
		}
		locked, err := lockProducts(ctx, products, companyID, ids)
		if err != nil {
			return err
		}
		items, err := buildItems(s.ID, in.Items, locked, sales.QuantitiesByProduct(oldItems))
		if err != nil {
			return err
		}
		if err := applyTotals(s, items, in.Discount, in.Paid); err != nil {
			return err
		}
		s.CustomerID = customerID
		s.PaymentMethod = in.PaymentMethod
		s.Notes = in.Notes
		s.UpdatedAt = now
		if err := saleRepo.Update(ctx, s); err != nil {
			return err
		}
		lowStock, err = reconcile(ctx, products, movs, locked, sales.StockDiff(oldItems, s.Items), s, userID, now)
		sale = s
		return err
	})
	if err != nil {
		fail(span, err)
		return nil, err
	}
	uc.publishLowStock(ctx, lowStock, userID)
	resp := dto.ToSaleResponse(sale)
	return &resp, nil
}

// Cancel anula la venta devolviendo todo el stock. Anular dos veces devuelve ErrSaleCancelled.
func (uc *UseCase) Cancel(ctx context.Context, companyID, userID, id string, in dto.CancelSaleRequest) (*dto.SaleResponse, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "sales.Cancel")
	defer span.End()
	span.SetAttributes(attribute.String("sale.id", id))

	now := time.Now()
	var sale *entity.Sale
	err := uc.Tx.RunSales(ctx, func(saleRepo repository.SaleRepository, products repository.ProductRepository, movs repository.InventoryMovementRepository, _ repository.SequenceRepository) error {
		s, err := saleRepo.GetForUpdate(ctx, companyID, id)
		if err != nil {
			return err
		}
		if s == nil {
			return domain.ErrNotFound
		}
		if s.Status == entity.SaleStatusCancelled {
			return domain.ErrSaleCancelled
		}
		diff := sales.StockDiff(s.Items, nil)
		locked, err := lockProducts(ctx, products, companyID, keys(diff))
		if err != nil {
			return err
		}
		if _, err := reconcile(ctx, products, movs, locked, diff, s, userID, now); err != nil {
			return err
		}
		s.Status = entity.SaleStatusCancelled
		s.CancelReason = strings.TrimSpace(in.Reason)
		s.CancelledAt = &now
		s.UpdatedAt = now
		sale = s
		return saleRepo.UpdateStatus(ctx, s)
	})
	if err != nil {
		fail(span, err)
		return nil, err
	}
	uc.publish(ctx, saleEvent(entity.EventSaleCancelled, sale, userID))
	resp := dto.ToSaleResponse(sale)
	return &resp, nil
}

// Get devuelve una venta con sus líneas.
func (uc *UseCase) Get(ctx context.Context, companyID, id string) (*dto.SaleResponse, error) {
	s, err := uc.get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	resp := dto.ToSaleResponse(s)
	return &resp, nil
}

// List ventas por rango de fechas, estado o cliente (sin líneas).
func (uc *UseCase) List(ctx context.Context, companyID string, f repository.SaleFilter) (*dto.SaleListResponse, error) {
	if f.Status != "" && f.Status != entity.SaleStatusCompleted && f.Status != entity.SaleStatusCancelled {
		return nil, fmt.Errorf("%w: estado de venta %q", domain.ErrInvalidInput, f.Status)
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, fmt.Errorf("%w: rango de fechas invertido", domain.ErrInvalidInput)
	}
	page := dto.PageRequest{Limit: f.Limit, Offset: f.Offset}
	page.DefaultPage()
	f.Limit, f.Offset = page.Limit, page.Offset
	list, total, err := uc.Sales.List(ctx, companyID, f)
	if err != nil {
		return nil, err
	}
	out := &dto.SaleListResponse{
		Items: make([]dto.SaleResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: f.Limit, Offset: f.Offset, Total: total},
	}
	for _, s := range list {
		out.Items = append(out.Items, dto.ToSaleResponse(s))
	}
	return out, nil
}

// Receipt recibo PDF de la venta.
func (uc *UseCase) Receipt(ctx context.Context, companyID, id string) ([]byte, string, error) {
	data, err := uc.receiptData(ctx, companyID, id)
	if err != nil {
		return nil, "", err
	}
	pdf, err := uc.Renderer.SaleReceipt(ctx, *data)
	if err != nil {
		return nil, "", err
	}
	return pdf, data.Sale.Number + ".pdf", nil
}

// EmailReceipt envía el recibo PDF a to o, si viene vacío, al email del cliente.
func (uc *UseCase) EmailReceipt(ctx context.Context, companyID, id, to string) error {
	if uc.Mailer == nil {
		return fmt.Errorf("%w: SMTP no configurado", domain.ErrNotConfigured)
	}
	data, err := uc.receiptData(ctx, companyID, id)
	if err != nil {
		return err
	}
	to = strings.TrimSpace(to)
	if to == "" && data.Customer != nil {
		to = data.Customer.Email
	}
	if to == "" {
		return fmt.Errorf("%w: no hay email de destino para el recibo", domain.ErrInvalidInput)
	}
	pdf, err := uc.Renderer.SaleReceipt(ctx, *data)
	if err != nil {
		return err
	}
	name := data.Branding.BusinessName
	if name == "" {
		name = data.Company.Name
	}
	return uc.Mailer.Send(ctx, ports.Email{
		To:       []string{to},
		Subject:  fmt.Sprintf("Recibo %s - %s", data.Sale.Number, name),
		HTMLBody: fmt.Sprintf("<p>Gracias por su compra en <b>%s</b>.</p><p>Adjuntamos el recibo %s por %s.</p>", name, data.Sale.Number, data.Sale.Total.StringFixed(2)),
		Attachments: []ports.Attachment{{
			Filename:    data.Sale.Number + ".pdf",
			ContentType: "application/pdf",
			Content:     pdf,
		}},
	})
}

func (uc *UseCase) receiptData(ctx context.Context, companyID, id string) (*ports.ReceiptData, error) {
	s, err := uc.get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	company, err := uc.Companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	branding, err := uc.Branding.Branding(ctx, companyID)
	if err != nil {
		return nil, err
	}
	data := &ports.ReceiptData{Company: company, Branding: branding, Sale: s}
	if s.CustomerID != nil {
		if data.Customer, err = uc.Customers.GetByID(ctx, companyID, *s.CustomerID); err != nil {
			return nil, err
		}
	}
	if u, err := uc.Users.GetByID(ctx, s.UserID); err == nil && u != nil {
		data.Seller = u.Name
	}
	return data, nil
}

func (uc *UseCase) get(ctx context.Context, companyID, id string) (*entity.Sale, error) {
	s, err := uc.Sales.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func (uc *UseCase) customer(ctx context.Context, companyID string, id *string) (*string, error) {
	if id == nil || *id == "" {
		return nil, nil
	}
	c, err := uc.Customers.GetByID(ctx, companyID, *id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: cliente inexistente", domain.ErrInvalidInput)
	}
	return &c.ID, nil
}

func (uc *UseCase) publish(ctx context.Context, ev entity.DomainEvent) {
	if uc.Publisher == nil {
		return
	}
	if err := uc.Publisher.Publish(ctx, ev); err != nil {
		uc.Log.Warn().Err(err).Str("event", ev.Type).Str("entity_id", ev.EntityID).Msg("no se pudo publicar evento")
	}
}

func (uc *UseCase) publishLowStock(ctx context.Context, products []*entity.Product, userID string) {
	for _, p := range products {
		uc.publish(ctx, inventory.LowStockEvent(p, userID))
	}
}

func validateHeader(paymentMethod string, items []dto.SaleItemRequest) error {
	if !entity.IsValidPaymentMethod(paymentMethod) {
		return fmt.Errorf("%w: medio de pago %q", domain.ErrInvalidInput, paymentMethod)
	}
	if len(items) == 0 {
		return fmt.Errorf("%w: la venta debe tener al menos una línea", domain.ErrInvalidInput)
	}
	for _, it := range items {
		if it.ProductID == "" || it.Quantity <= 0 {
			return fmt.Errorf("%w: cada línea requiere producto y cantidad positiva", domain.ErrInvalidInput)
		}
		if it.UnitPrice != nil && it.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: precio unitario negativo", domain.ErrInvalidInput)
		}
	}
	return nil
}

func requestedIDs(items []dto.SaleItemRequest) map[string]struct{} {
	ids := make(map[string]struct{}, len(items))
	for _, it := range items {
		ids[it.ProductID] = struct{}{}
	}
	return ids
}

func keys(m map[string]int) map[string]struct{} {
	out := make(map[string]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}

// lockProducts bloquea las filas en orden de ID para que dos ventas concurrentes no se interbloqueen.
func lockProducts(ctx context.Context, products repository.ProductRepository, companyID string, ids map[string]struct{}) (map[string]*entity.Product, error) {
	locked := make(map[string]*entity.Product, len(ids))
	for _, id := range sales.SortedProductIDs(ids) {
		p, err := products.GetForUpdate(ctx, companyID, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
		}
		locked[id] = p
	}
	return locked, nil
}

// buildItems arma las líneas con nombre y precio congelados. Un producto inactivo solo puede
// seguir en la venta si ya estaba (previous).
func buildItems(saleID string, req []dto.SaleItemRequest, locked map[string]*entity.Product, previous map[string]int) ([]entity.SaleItem, error) {
	items := make([]entity.SaleItem, 0, len(req))
	for _, it := range req {
		p := locked[it.ProductID]
		if !p.Active {
			if _, ok := previous[p.ID]; !ok {
				return nil, fmt.Errorf("%w: el producto %s está inactivo", domain.ErrInvalidInput, p.SKU)
			}
		}
		price := p.Price
		if it.UnitPrice != nil {
			price = *it.UnitPrice
		}
		items = append(items, entity.SaleItem{
			ID:          uuid.New().String(),
			SaleID:      saleID,
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    it.Quantity,
			UnitPrice:   price,
		})
	}
	return items, nil
}

func applyTotals(s *entity.Sale, items []entity.SaleItem, discount decimal.Decimal, paid *decimal.Decimal) error {
	items, t, err := sales.ComputeTotals(items, discount, paid)
	if err != nil {
		return fmt.Errorf("%w: descuento mayor al subtotal o pago insuficiente", err)
	}
	s.Items = items
	s.Subtotal = t.Subtotal
	s.Discount = t.Discount
	s.Total = t.Total
	s.Paid = t.Paid
	s.Change = t.Change
	return nil
}

// reconcile aplica la diferencia de unidades por producto: positivo descuenta stock (SALE),
// negativo lo devuelve (SALE_RETURN). Devuelve los productos que cruzaron su umbral de reorden.
func reconcile(
	ctx context.Context,
	products repository.ProductRepository,
	movs repository.InventoryMovementRepository,
	locked map[string]*entity.Product,
	diff map[string]int,
	s *entity.Sale,
	userID string,
	at time.Time,
) ([]*entity.Product, error) {
	var low []*entity.Product
	for _, id := range sales.SortedProductIDs(diff) {
		d := diff[id]
		p := locked[id]
		change := inventory.Change{
			Type:        entity.MovementTypeSale,
			Delta:       -d,
			ReferenceID: s.ID,
			Reason:      "venta " + s.Number,
			UserID:      userID,
			At:          at,
		}
		if d < 0 {
			change.Type = entity.MovementTypeSaleReturn
			change.Reason = "devolución venta " + s.Number
		}
		_, crossed, err := inventory.Apply(ctx, products, movs, p, change)
		if err != nil {
			if errors.Is(err, domain.ErrInsufficientStock) {
				return nil, fmt.Errorf("%w: %s (disponible %d, requerido %d)", domain.ErrInsufficientStock, p.SKU, p.Stock, d)
			}
			return nil, err
		}
		if crossed {
			low = append(low, p)
		}
	}
	return low, nil
}

func saleEvent(typ string, s *entity.Sale, userID string) entity.DomainEvent {
	return entity.DomainEvent{
		ID:        uuid.New().String(),
		Type:      typ,
		CompanyID: s.CompanyID,
		UserID:    userID,
		EntityID:  s.ID,
		Data: map[string]string{
			"number":         s.Number,
			"total":          s.Total.StringFixed(2),
			"payment_method": s.PaymentMethod,
			"items":          strconv.Itoa(len(s.Items)),
		},
		OccurredAt: time.Now(),
	}
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
