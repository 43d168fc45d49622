package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-api/internal/application/ports"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/testutil/memstore"
)

type fakeSettings struct{ cfg entity.WhatsAppSettings }

func (f fakeSettings) WhatsApp(context.Context, string) (entity.WhatsAppSettings, error) {
	return f.cfg, nil
}

type sentMessage struct {
	creds ports.WhatsAppCredentials
	to    string
	body  string
}

type fakeWhatsApp struct {
	sent []sentMessage
	err  error
}

func (f *fakeWhatsApp) SendText(_ context.Context, creds ports.WhatsAppCredentials, to, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{creds: creds, to: to, body: body})
	return nil
}

type fakeDashboard struct{ invalidated []string }

func (f *fakeDashboard) Invalidate(_ context.Context, companyID string) {
	f.invalidated = append(f.invalidated, companyID)
}

func statusChanged(to string) entity.DomainEvent {
	return entity.DomainEvent{
		Type:      entity.EventWorkOrderStatusChanged,
		CompanyID: "c1",
		EntityID:  "o1",
		Data: map[string]string{
			"number":         "OT-000007",
			"device":         "Celular Samsung A52",
			"customer_name":  "Carlos",
			"customer_phone": "300 123 4567",
			"from":           entity.WorkOrderInProgress,
			"to":             to,
		},
	}
}

func whatsappOn() entity.WhatsAppSettings {
	w := entity.DefaultWhatsApp()
	w.Enabled = true
	w.PhoneNumberID = "555"
	w.AccessToken = "tok"
	return w
}

func TestHandle_OrdenFinalizadaAvisaPorWhatsApp(t *testing.T) {
	store := memstore.New()
	wa := &fakeWhatsApp{}
	dash := &fakeDashboard{}
	d := NewDispatcher(store.Notifications(), fakeSettings{cfg: whatsappOn()}, wa, dash, nil)

	require.NoError(t, d.Handle(context.Background(), statusChanged(entity.WorkOrderFinished)))

	notes := store.AllNotifications()
	require.Len(t, notes, 1)
	assert.Equal(t, entity.NotificationSuccess, notes[0].Type)
	assert.Equal(t, "work_order", notes[0].EntityType)
	assert.Equal(t, "Orden OT-000007: lista para entregar", notes[0].Title)
	assert.Nil(t, notes[0].UserID)
	assert.Equal(t, []string{"c1"}, dash.invalidated)

	require.Len(t, wa.sent, 1)
	assert.Equal(t, "573001234567", wa.sent[0].to)
	assert.Equal(t, "tok", wa.sent[0].creds.AccessToken)
	assert.Equal(t, "Hola Carlos, su orden OT-000007 (Celular Samsung A52) ahora está: lista para entregar.", wa.sent[0].body)
}

func TestHandle_EstadoNoConfiguradoNoEnvia(t *testing.T) {
	store := memstore.New()
	wa := &fakeWhatsApp{}
	d := NewDispatcher(store.Notifications(), fakeSettings{cfg: whatsappOn()}, wa, nil, nil)

	require.NoError(t, d.Handle(context.Background(), statusChanged(entity.WorkOrderDelivered)))
	assert.Empty(t, wa.sent)
	assert.Len(t, store.AllNotifications(), 1)

	disabled := whatsappOn()
	disabled.Enabled = false
	d = NewDispatcher(store.Notifications(), fakeSettings{cfg: disabled}, wa, nil, nil)
	require.NoError(t, d.Handle(context.Background(), statusChanged(entity.WorkOrderFinished)))
	assert.Empty(t, wa.sent)
}

func TestHandle_FalloDeWhatsAppNoFallaElEvento(t *testing.T) {
	store := memstore.New()
	wa := &fakeWhatsApp{err: errors.New("401 token vencido")}
	d := NewDispatcher(store.Notifications(), fakeSettings{cfg: whatsappOn()}, wa, nil, nil)

	require.NoError(t, d.Handle(context.Background(), statusChanged(entity.WorkOrderFinished)))
	assert.Len(t, store.AllNotifications(), 1)
}

func TestHandle_TiposDeEvento(t *testing.T) {
	tests := []struct {
		name      string
		ev        entity.DomainEvent
		wantType  string
		wantTitle string
	}{
		{
			name:      "venta",
			ev:        entity.DomainEvent{Type: entity.EventSaleCreated, Data: map[string]string{"number": "V-000001", "total": "5000", "payment_method": "efectivo", "items": "2"}},
			wantType:  entity.NotificationSuccess,
			wantTitle: "Nueva venta V-000001",
		},
		{
			name:      "anulación",
			ev:        entity.DomainEvent{Type: entity.EventSaleCancelled, Data: map[string]string{"number": "V-000001"}},
			wantType:  entity.NotificationWarning,
			wantTitle: "Venta anulada V-000001",
		},
		{
			name:      "orden nueva",
			ev:        entity.DomainEvent{Type: entity.EventWorkOrderCreated, Data: map[string]string{"number": "OT-000002"}},
			wantType:  entity.NotificationInfo,
			wantTitle: "Nueva orden OT-000002",
		},
		{
			name:      "stock bajo",
			ev:        entity.DomainEvent{Type: entity.EventProductLowStock, Data: map[string]string{"name": "Pantalla", "sku": "PAN-1"}},
			wantType:  entity.NotificationWarning,
			wantTitle: "Stock bajo: Pantalla (PAN-1)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memstore.New()
			d := NewDispatcher(store.Notifications(), fakeSettings{}, nil, nil, nil)
			tt.ev.CompanyID = "c1"
			require.NoError(t, d.Handle(context.Background(), tt.ev))
			notes := store.AllNotifications()
			require.Len(t, notes, 1)
			assert.Equal(t, tt.wantType, notes[0].Type)
			assert.Equal(t, tt.wantTitle, notes[0].Title)
		})
	}
}

func TestHandle_EventoDesconocidoSeIgnora(t *testing.T) {
	store := memstore.New()
	dash := &fakeDashboard{}
	d := NewDispatcher(store.Notifications(), fakeSettings{}, nil, dash, nil)
	require.NoError(t, d.Handle(context.Background(), entity.DomainEvent{Type: "user.login", CompanyID: "c1"}))
	assert.Empty(t, store.AllNotifications())
	assert.Empty(t, dash.invalidated)
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "573001234567", NormalizePhone("300-123-4567"))
	assert.Equal(t, "573001234567", NormalizePhone("+57 300 123 4567"))
	assert.Equal(t, "6041234567", NormalizePhone("(604) 123 4567"))
	assert.Equal(t, "", NormalizePhone("12 34"))
	assert.Equal(t, "", NormalizePhone(""))
}

func TestRenderTemplate(t *testing.T) {
	data := map[string]string{"customer_name": "Ana", "number": "OT-000010", "device": "Portátil", "status": entity.WorkOrderDelivered}
	assert.Equal(t, "Ana: OT-000010 Portátil entregada", RenderTemplate("{cliente}: {numero} {equipo} {estado}", data))
	assert.Contains(t, RenderTemplate("", data), "Hola Ana")
}
