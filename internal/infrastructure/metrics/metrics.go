// Package metrics expone métricas Prometheus del API: tráfico HTTP y hechos de negocio
// (ventas y transiciones de órdenes) derivados de los eventos de dominio.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/taller-api/internal/application/ports"
	"github.com/jhoicas/taller-api/internal/domain/entity"
)

// Metrics colectores registrados en un registry propio.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	sales        *prometheus.CounterVec
	salesAmount  *prometheus.CounterVec
	transitions  *prometheus.CounterVec
}

// New crea y registra los colectores, más los del runtime de Go y del proceso.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taller_http_requests_total",
			Help: "Peticiones HTTP atendidas.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taller_http_request_duration_seconds",
			Help:    "Latencia de las peticiones HTTP.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		sales: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taller_sales_total",
			Help: "Ventas registradas y anuladas.",
		}, []string{"status", "payment_method"}),
		salesAmount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taller_sales_amount_total",
			Help: "Monto vendido (ventas completadas).",
		}, []string{"payment_method"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taller_work_order_transitions_total",
			Help: "Cambios de estado de órdenes de trabajo.",
		}, []string{"from", "to"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration, m.sales, m.salesAmount, m.transitions,
	)
	return m
}

// Registry registry con todos los colectores.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler exposición en formato Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware mide cada petición. La ruta se etiqueta con el patrón registrado
// (/api/sales/:id), no con la URL concreta.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else if status < 400 {
				status = fiber.StatusInternalServerError
			}
		}
		route := c.Route().Path
		if route == "" || route == "/" && c.Path() != "/" {
			route = "sin_ruta"
		}
		method := c.Method()
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		return err
	}
}

// EventHandler actualiza los contadores de negocio desde el bus de eventos.
func (m *Metrics) EventHandler() ports.EventHandler {
	return func(_ context.Context, ev entity.DomainEvent) error {
		switch ev.Type {
		case entity.EventSaleCreated:
			method := ev.Data["payment_method"]
			m.sales.WithLabelValues(entity.SaleStatusCompleted, method).Inc()
			if total, err := strconv.ParseFloat(ev.Data["total"], 64); err == nil && total > 0 {
				m.salesAmount.WithLabelValues(method).Add(total)
			}
		case entity.EventSaleCancelled:
			m.sales.WithLabelValues(entity.SaleStatusCancelled, ev.Data["payment_method"]).Inc()
		case entity.EventWorkOrderStatusChanged:
			m.transitions.WithLabelValues(ev.Data["from"], ev.Data["to"]).Inc()
		}
		return nil
	}
}
