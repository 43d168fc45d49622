// Package notify consume los eventos de dominio y los convierte en notificaciones del feed
// y en mensajes de WhatsApp a los clientes.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/taller-api/internal/application/ports"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
	"github.com/jhoicas/taller-api/pkg/logger"
)

// WhatsAppSettingsSource entrega la configuración de WhatsApp de la empresa (token sin enmascarar).
type WhatsAppSettingsSource interface {
	WhatsApp(ctx context.Context, companyID string) (entity.WhatsAppSettings, error)
}

// DashboardInvalidator descarta el resumen cacheado de una empresa.
type DashboardInvalidator interface {
	Invalidate(ctx context.Context, companyID string)
}

// Dispatcher implementa ports.EventHandler.
type Dispatcher struct {
	notifications repository.NotificationRepository
	settings      WhatsAppSettingsSource
	whatsapp      ports.WhatsAppSender
	dashboard     DashboardInvalidator
	log           *logger.Logger
}

// NewDispatcher construye el consumidor. whatsapp y dashboard pueden ser nil.
func NewDispatcher(
	notifications repository.NotificationRepository,
	settings WhatsAppSettingsSource,
	whatsapp ports.WhatsAppSender,
	dashboard DashboardInvalidator,
	log *logger.Logger,
) *Dispatcher {
	if log == nil {
		log = logger.Nop()
	}
	return &Dispatcher{
		notifications: notifications,
		settings:      settings,
		whatsapp:      whatsapp,
		dashboard:     dashboard,
		log:           log.Component("notify"),
	}
}

// Handle procesa un evento. Los tipos desconocidos se ignoran.
// Un fallo de WhatsApp se registra pero no hace fallar el evento.
func (d *Dispatcher) Handle(ctx context.Context, ev entity.DomainEvent) error {
	n := notificationFor(ev)
	if n == nil {
		return nil
	}
	if d.dashboard != nil {
		d.dashboard.Invalidate(ctx, ev.CompanyID)
	}
	if err := d.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("notify: crear notificación %s: %w", ev.Type, err)
	}
	if ev.Type == entity.EventWorkOrderStatusChanged {
		d.sendWhatsApp(ctx, ev)
	}
	return nil
}

func (d *Dispatcher) sendWhatsApp(ctx context.Context, ev entity.DomainEvent) {
	if d.whatsapp == nil {
		return
	}
	cfg, err := d.settings.WhatsApp(ctx, ev.CompanyID)
	if err != nil {
		d.log.Warn().Err(err).Str("company_id", ev.CompanyID).Msg("no se pudo leer configuración de WhatsApp")
		return
	}
	status := ev.Data["to"]
	if !cfg.Enabled || !cfg.NotifiesStatus(status) {
		return
	}
	phone := NormalizePhone(ev.Data["customer_phone"])
	if phone == "" {
		d.log.Debug().Str("work_order_id", ev.EntityID).Msg("cliente sin teléfono, no se envía WhatsApp")
		return
	}
	body := RenderTemplate(cfg.MessageTemplate, ev.Data)
	creds := ports.WhatsAppCredentials{PhoneNumberID: cfg.PhoneNumberID, AccessToken: cfg.AccessToken}
	if err := d.whatsapp.SendText(ctx, creds, phone, body); err != nil {
		d.log.Error().Err(err).Str("work_order_id", ev.EntityID).Str("status", status).Msg("falló envío de WhatsApp")
		return
	}
	d.log.Info().Str("work_order_id", ev.EntityID).Str("status", status).Msg("WhatsApp enviado al cliente")
}

// RenderTemplate reemplaza {cliente}, {numero}, {equipo} y {estado} con los datos del evento.
func RenderTemplate(tpl string, data map[string]string) string {
	if tpl == "" {
		tpl = entity.DefaultWhatsApp().MessageTemplate
	}
	status := data["to"]
	if status == "" {
		status = data["status"]
	}
	return strings.NewReplacer(
		"{cliente}", data["customer_name"],
		"{numero}", data["number"],
		"{equipo}", data["device"],
		"{estado}", StatusLabel(status),
	).Replace(tpl)
}

// StatusLabel estado legible para el cliente.
func StatusLabel(status string) string {
	switch status {
	case entity.WorkOrderPending:
		return "pendiente"
	case entity.WorkOrderInProgress:
		return "en proceso"
	case entity.WorkOrderFinished:
		return "lista para entregar"
	case entity.WorkOrderDelivered:
		return "entregada"
	}
	return status
}

// NormalizePhone deja solo dígitos; un celular colombiano de 10 dígitos recibe el indicativo 57.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 10 && digits[0] == '3' {
		return "57" + digits
	}
	if len(digits) < 8 {
		return ""
	}
	return digits
}

func notificationFor(ev entity.DomainEvent) *entity.Notification {
	n := &entity.Notification{
		ID:        uuid.New().String(),
		CompanyID: ev.CompanyID,
		EntityID:  ev.EntityID,
		CreatedAt: time.Now(),
	}
	d := ev.Data
	switch ev.Type {
	case entity.EventSaleCreated:
		n.Type = entity.NotificationSuccess
		n.EntityType = "sale"
		n.Title = "Nueva venta " + d["number"]
		n.Message = fmt.Sprintf("Total %s (%s), %s líneas", d["total"], d["payment_method"], d["items"])
	case entity.EventSaleCancelled:
		n.Type = entity.NotificationWarning
		n.EntityType = "sale"
		n.Title = "Venta anulada " + d["number"]
		n.Message = fmt.Sprintf("Se devolvió al inventario el stock de la venta por %s", d["total"])
	case entity.EventWorkOrderCreated:
		n.Type = entity.NotificationInfo
		n.EntityType = "work_order"
		n.Title = "Nueva orden " + d["number"]
		n.Message = fmt.Sprintf("%s de %s", d["device"], d["customer_name"])
	case entity.EventWorkOrderStatusChanged:
		n.Type = entity.NotificationInfo
		if d["to"] == entity.WorkOrderFinished {
			n.Type = entity.NotificationSuccess
		}
		n.EntityType = "work_order"
		n.Title = fmt.Sprintf("Orden %s: %s", d["number"], StatusLabel(d["to"]))
		n.Message = fmt.Sprintf("%s de %s pasó de %s a %s", d["device"], d["customer_name"], StatusLabel(d["from"]), StatusLabel(d["to"]))
	case entity.EventProductLowStock:
		n.Type = entity.NotificationWarning
		n.EntityType = "product"
		n.Title = fmt.Sprintf("Stock bajo: %s (%s)", d["name"], d["sku"])
		n.Message = fmt.Sprintf("Quedan %s unidades, mínimo %s", d["stock"], d["min_stock"])
	default:
		return nil
	}
	return n
}
