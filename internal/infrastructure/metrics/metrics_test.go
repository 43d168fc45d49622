package metrics

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-api/internal/domain/entity"
)

func TestEventHandler_Ventas(t *testing.T) {
	m := New()
	h := m.EventHandler()
	ctx := context.Background()

	require.NoError(t, h(ctx, entity.DomainEvent{Type: entity.EventSaleCreated, Data: map[string]string{"payment_method": "efectivo", "total": "15000.50"}}))
	require.NoError(t, h(ctx, entity.DomainEvent{Type: entity.EventSaleCreated, Data: map[string]string{"payment_method": "efectivo", "total": "4999.50"}}))
	require.NoError(t, h(ctx, entity.DomainEvent{Type: entity.EventSaleCancelled, Data: map[string]string{"payment_method": "tarjeta"}}))
	require.NoError(t, h(ctx, entity.DomainEvent{Type: "otro"}))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.sales.WithLabelValues("completada", "efectivo")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sales.WithLabelValues("anulada", "tarjeta")))
	assert.InDelta(t, 20000.0, testutil.ToFloat64(m.salesAmount.WithLabelValues("efectivo")), 0.001)
}

func TestEventHandler_Transiciones(t *testing.T) {
	m := New()
	ev := entity.DomainEvent{Type: entity.EventWorkOrderStatusChanged, Data: map[string]string{"from": "pendiente", "to": "en_proceso"}}
	require.NoError(t, m.EventHandler()(context.Background(), ev))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("pendiente", "en_proceso")))
}

func TestMiddleware_EtiquetaConPatronDeRuta(t *testing.T) {
	m := New()
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/api/sales/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for _, id := range []string{"a", "b"} {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/sales/"+id, nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/sales/:id", "200")))
}

func TestHandler_ExponeMetricas(t *testing.T) {
	m := New()
	m.sales.WithLabelValues("completada", "efectivo").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "taller_sales_total"))
}
