// Package workorder orquesta las órdenes de reparación: recepción, avance de estado y ticket.
package workorder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jhoicas/taller-api/internal/application/dto"
	"github.com/jhoicas/taller-api/internal/application/ports"
	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
	"github.com/jhoicas/taller-api/internal/domain/workorder"
	"github.com/jhoicas/taller-api/pkg/logger"
	"github.com/jhoicas/taller-api/pkg/telemetry"
)

// SequenceName consecutivo de órdenes en company_sequences.
const SequenceName = "work_order"

// Deps dependencias del caso de uso.
type Deps struct {
	Tx        TxRunner
	Orders    repository.WorkOrderRepository
	Customers repository.CustomerRepository
	Employees repository.EmployeeRepository
	Companies repository.CompanyRepository
	Branding  BrandingSource
	Renderer  ports.DocumentRenderer
	Publisher ports.EventPublisher
	Log       *logger.Logger
}

// UseCase órdenes de trabajo de una empresa.
type UseCase struct {
	Deps
}

// NewUseCase construye el caso de uso.
func NewUseCase(d Deps) *UseCase {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	d.Log = d.Log.Component("work_orders")
	return &UseCase{Deps: d}
}

// Create recibe un equipo: valida cliente y técnico, asigna el consecutivo OT-000001 y deja la orden pendiente.
func (uc *UseCase) Create(ctx context.Context, companyID, userID string, in dto.CreateWorkOrderRequest) (*dto.WorkOrderResponse, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "workorder.Create")
	defer span.End()

	if strings.TrimSpace(in.DeviceType) == "" || strings.TrimSpace(in.ReportedIssue) == "" {
		return nil, fmt.Errorf("%w: tipo de equipo y falla reportada son obligatorios", domain.ErrInvalidInput)
	}
	if in.EstimatedCost.IsNegative() || in.AdvancePayment.IsNegative() {
		return nil, fmt.Errorf("%w: los valores no pueden ser negativos", domain.ErrInvalidInput)
	}
	customer, err := uc.customer(ctx, companyID, in.CustomerID)
	if err != nil {
		return nil, err
	}
	technicianID, err := uc.technician(ctx, companyID, in.TechnicianID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order := &entity.WorkOrder{
		ID:             uuid.New().String(),
		CompanyID:      companyID,
		CustomerID:     customer.ID,
		TechnicianID:   technicianID,
		DeviceType:     strings.TrimSpace(in.DeviceType),
		Brand:          strings.TrimSpace(in.Brand),
		Model:          strings.TrimSpace(in.Model),
		SerialNumber:   strings.TrimSpace(in.SerialNumber),
		ReportedIssue:  strings.TrimSpace(in.ReportedIssue),
		EstimatedCost:  in.EstimatedCost,
		AdvancePayment: in.AdvancePayment,
		Status:         entity.WorkOrderPending,
		PromisedAt:     in.PromisedAt,
		Notes:          in.Notes,
		CreatedBy:      userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err = uc.Tx.RunWorkOrder(ctx, func(orders repository.WorkOrderRepository, seqs repository.SequenceRepository) error {
		n, err := seqs.Next(ctx, companyID, SequenceName)
		if err != nil {
			return err
		}
		order.Number = fmt.Sprintf("OT-%06d", n)
		if err := orders.Create(ctx, order); err != nil {
			return err
		}
		return orders.AddHistory(ctx, &entity.WorkOrderStatusChange{
			ID:          uuid.New().String(),
			CompanyID:   companyID,
			WorkOrderID: order.ID,
			ToStatus:    entity.WorkOrderPending,
			Note:        "recepción del equipo",
			ChangedBy:   userID,
			ChangedAt:   now,
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("work_order.number", order.Number))

	uc.publish(ctx, entity.DomainEvent{
		ID:         uuid.New().String(),
		Type:       entity.EventWorkOrderCreated,
		CompanyID:  companyID,
		UserID:     userID,
		EntityID:   order.ID,
		Data:       eventData(order, customer),
		OccurredAt: now,
	})
	return toResponse(order), nil
}

// Get devuelve una orden.
func (uc *UseCase) Get(ctx context.Context, companyID, id string) (*dto.WorkOrderResponse, error) {
	o, err := uc.get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return toResponse(o), nil
}

// List órdenes filtradas por estado, cliente, técnico o texto libre.
func (uc *UseCase) List(ctx context.Context, companyID string, f repository.WorkOrderFilter) (*dto.WorkOrderListResponse, error) {
	if f.Status != "" && !workorder.IsValidStatus(f.Status) {
		return nil, fmt.Errorf("%w: estado desconocido %q", domain.ErrInvalidInput, f.Status)
	}
	page := dto.PageRequest{Limit: f.Limit, Offset: f.Offset}
	page.DefaultPage()
	f.Limit, f.Offset = page.Limit, page.Offset
	list, total, err := uc.Orders.List(ctx, companyID, f)
	if err != nil {
		return nil, err
	}
	out := &dto.WorkOrderListResponse{
		Items: make([]dto.WorkOrderResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: f.Limit, Offset: f.Offset, Total: total},
	}
	for _, o := range list {
		out.Items = append(out.Items, *toResponse(o))
	}
	return out, nil
}

// Update modifica los datos editables. Una orden entregada ya no se modifica.
func (uc *UseCase) Update(ctx context.Context, companyID, id string, in dto.UpdateWorkOrderRequest) (*dto.WorkOrderResponse, error) {
	o, err := uc.get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if o.Status == entity.WorkOrderDelivered {
		return nil, fmt.Errorf("%w: la orden ya fue entregada", domain.ErrConflict)
	}
	if in.TechnicianID != nil {
		t, err := uc.technician(ctx, companyID, in.TechnicianID)
		if err != nil {
			return nil, err
		}
		o.TechnicianID = t
	}
	setString(&o.DeviceType, in.DeviceType)
	setString(&o.Brand, in.Brand)
	setString(&o.Model, in.Model)
	setString(&o.SerialNumber, in.SerialNumber)
	setString(&o.ReportedIssue, in.ReportedIssue)
	setString(&o.Diagnosis, in.Diagnosis)
	if in.Notes != nil {
		o.Notes = *in.Notes
	}
	if in.EstimatedCost != nil {
		o.EstimatedCost = *in.EstimatedCost
	}
	if in.FinalCost != nil {
		o.FinalCost = *in.FinalCost
	}
	if in.AdvancePayment != nil {
		o.AdvancePayment = *in.AdvancePayment
	}
	if in.PromisedAt != nil {
		o.PromisedAt = in.PromisedAt
	}
	if o.DeviceType == "" || o.ReportedIssue == "" {
		return nil, fmt.Errorf("%w: tipo de equipo y falla reportada son obligatorios", domain.ErrInvalidInput)
	}
	if o.EstimatedCost.IsNegative() || o.FinalCost.IsNegative() || o.AdvancePayment.IsNegative() {
		return nil, fmt.Errorf("%w: los valores no pueden ser negativos", domain.ErrInvalidInput)
	}
	o.UpdatedAt = time.Now()
	if err := uc.Orders.Update(ctx, o); err != nil {
		return nil, err
	}
	return toResponse(o), nil
}

// Delete elimina la orden solo mientras está pendiente.
func (uc *UseCase) Delete(ctx context.Context, companyID, id string) error {
	o, err := uc.get(ctx, companyID, id)
	if err != nil {
		return err
	}
	if o.Status != entity.WorkOrderPending {
		return fmt.Errorf("%w: solo se eliminan órdenes pendientes", domain.ErrConflict)
	}
	return uc.Orders.Delete(ctx, companyID, id)
}

// ChangeStatus avanza la orden un paso, registra el historial y publica work_order.status_changed.
// Al pasar a entregado se fija delivered_at.
func (uc *UseCase) ChangeStatus(ctx context.Context, companyID, userID, id string, in dto.ChangeStatusRequest) (*dto.WorkOrderResponse, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "workorder.ChangeStatus")
	defer span.End()
	span.SetAttributes(attribute.String("work_order.id", id), attribute.String("work_order.to", in.Status))

	var (
		order *entity.WorkOrder
		from  string
	)
	now := time.Now()
	err := uc.Tx.RunWorkOrder(ctx, func(orders repository.WorkOrderRepository, _ repository.SequenceRepository) error {
		o, err := orders.GetForUpdate(ctx, companyID, id)
		if err != nil {
			return err
		}
		if o == nil {
			return domain.ErrNotFound
		}
		if err := workorder.ValidateTransition(o.Status, in.Status); err != nil {
			return err
		}
		from = o.Status
		o.Status = in.Status
		o.UpdatedAt = now
		if in.Status == entity.WorkOrderDelivered {
			o.DeliveredAt = &now
		}
		if err := orders.UpdateStatus(ctx, o); err != nil {
			return err
		}
		order = o
		return orders.AddHistory(ctx, &entity.WorkOrderStatusChange{
			ID:          uuid.New().String(),
			CompanyID:   companyID,
			WorkOrderID: o.ID,
			FromStatus:  from,
			ToStatus:    in.Status,
			Note:        in.Note,
			ChangedBy:   userID,
			ChangedAt:   now,
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	customer, err := uc.Customers.GetByID(ctx, companyID, order.CustomerID)
	if err != nil {
		uc.Log.Warn().Err(err).Str("work_order_id", order.ID).Msg("no se pudo leer el cliente para el evento")
	}
	data := eventData(order, customer)
	data["from"] = from
	data["to"] = order.Status
	uc.publish(ctx, entity.DomainEvent{
		ID:         uuid.New().String(),
		Type:       entity.EventWorkOrderStatusChanged,
		CompanyID:  companyID,
		UserID:     userID,
		EntityID:   order.ID,
		Data:       data,
		OccurredAt: now,
	})
	return toResponse(order), nil
}

// History cambios de estado de la orden, del más antiguo al más reciente.
func (uc *UseCase) History(ctx context.Context, companyID, id string) ([]dto.StatusChangeResponse, error) {
	if _, err := uc.get(ctx, companyID, id); err != nil {
		return nil, err
	}
	list, err := uc.Orders.ListHistory(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StatusChangeResponse, 0, len(list))
	for _, h := range list {
		out = append(out, dto.StatusChangeResponse{
			FromStatus: h.FromStatus,
			ToStatus:   h.ToStatus,
			Note:       h.Note,
			ChangedBy:  h.ChangedBy,
			ChangedAt:  h.ChangedAt,
		})
	}
	return out, nil
}

// Ticket comprobante PDF de recepción con la identidad de la empresa.
func (uc *UseCase) Ticket(ctx context.Context, companyID, id string) ([]byte, string, error) {
	o, err := uc.get(ctx, companyID, id)
	if err != nil {
		return nil, "", err
	}
	company, err := uc.Companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, "", err
	}
	if company == nil {
		return nil, "", domain.ErrNotFound
	}
	branding, err := uc.Branding.Branding(ctx, companyID)
	if err != nil {
		return nil, "", err
	}
	customer, err := uc.Customers.GetByID(ctx, companyID, o.CustomerID)
	if err != nil {
		return nil, "", err
	}
	var technician *entity.Employee
	if o.TechnicianID != nil {
		if technician, err = uc.Employees.GetByID(ctx, companyID, *o.TechnicianID); err != nil {
			return nil, "", err
		}
	}
	pdf, err := uc.Renderer.WorkOrderTicket(ctx, ports.TicketData{
		Company:    company,
		Branding:   branding,
		Order:      o,
		Customer:   customer,
		Technician: technician,
	})
	if err != nil {
		return nil, "", err
	}
	return pdf, o.Number + ".pdf", nil
}

func (uc *UseCase) get(ctx context.Context, companyID, id string) (*entity.WorkOrder, error) {
	o, err := uc.Orders.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func (uc *UseCase) customer(ctx context.Context, companyID, id string) (*entity.Customer, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: customer_id es obligatorio", domain.ErrInvalidInput)
	}
	c, err := uc.Customers.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: cliente inexistente", domain.ErrInvalidInput)
	}
	return c, nil
}

// technician valida el empleado asignado. Cadena vacía desasigna.
func (uc *UseCase) technician(ctx context.Context, companyID string, id *string) (*string, error) {
	if id == nil || *id == "" {
		return nil, nil
	}
	e, err := uc.Employees.GetByID(ctx, companyID, *id)
	if err != nil {
		return nil, err
	}
	if e == nil || e.Status != entity.EmployeeStatusActive {
		return nil, fmt.Errorf("%w: técnico inexistente o inactivo", domain.ErrInvalidInput)
	}
	return &e.ID, nil
}

func (uc *UseCase) publish(ctx context.Context, ev entity.DomainEvent) {
	if uc.Publisher == nil {
		return
	}
	if err := uc.Publisher.Publish(ctx, ev); err != nil {
		uc.Log.Warn().Err(err).Str("event", ev.Type).Str("entity_id", ev.EntityID).Msg("no se pudo publicar evento")
	}
}

// eventData valores de presentación que el consumidor usa para notificaciones y WhatsApp.
func eventData(o *entity.WorkOrder, c *entity.Customer) map[string]string {
	d := map[string]string{
		"number": o.Number,
		"device": Device(o),
		"status": o.Status,
	}
	if c != nil {
		d["customer_name"] = c.Name
		d["customer_phone"] = c.Phone
	}
	return d
}

// Device descripción corta del equipo: tipo, marca y modelo.
func Device(o *entity.WorkOrder) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{o.DeviceType, o.Brand, o.Model} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func toResponse(o *entity.WorkOrder) *dto.WorkOrderResponse {
	return &dto.WorkOrderResponse{
		ID:             o.ID,
		CompanyID:      o.CompanyID,
		Number:         o.Number,
		CustomerID:     o.CustomerID,
		TechnicianID:   o.TechnicianID,
		DeviceType:     o.DeviceType,
		Brand:          o.Brand,
		Model:          o.Model,
		SerialNumber:   o.SerialNumber,
		ReportedIssue:  o.ReportedIssue,
		Diagnosis:      o.Diagnosis,
		EstimatedCost:  o.EstimatedCost,
		FinalCost:      o.FinalCost,
		AdvancePayment: o.AdvancePayment,
		Balance:        o.Balance(),
		Status:         o.Status,
		NextStatus:     workorder.Next(o.Status),
		PromisedAt:     o.PromisedAt,
		DeliveredAt:    o.DeliveredAt,
		Notes:          o.Notes,
		CreatedBy:      o.CreatedBy,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}
