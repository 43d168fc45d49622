package events

import (
	"context"
	"errors"

	"github.com/jhoicas/taller-api/internal/application/ports"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/pkg/logger"
)

// ErrQueueFull la cola en memoria no admite más eventos.
var ErrQueueFull = errors.New("events: cola llena")

var _ ports.EventPublisher = (*LocalBus)(nil)

// LocalBus cola en memoria: Publish no bloquea y Run entrega los eventos al handler
// en una sola goroutine, en el orden en que se publicaron.
type LocalBus struct {
	queue chan entity.DomainEvent
	log   *logger.Logger
}

// NewLocalBus construye el bus con capacidad size (256 si size <= 0).
func NewLocalBus(size int, log *logger.Logger) *LocalBus {
	if size <= 0 {
		size = 256
	}
	if log == nil {
		log = logger.Nop()
	}
	return &LocalBus{queue: make(chan entity.DomainEvent, size), log: log.Component("events")}
}

// Publish encola el evento. Con la cola llena devuelve ErrQueueFull sin bloquear la petición.
func (b *LocalBus) Publish(_ context.Context, ev entity.DomainEvent) error {
	select {
	case b.queue <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run consume la cola hasta que ctx se cancela. Los eventos pendientes al cancelar se
// entregan antes de salir con un contexto sin cancelación.
func (b *LocalBus) Run(ctx context.Context, handle ports.EventHandler) error {
	for {
		select {
		case ev := <-b.queue:
			b.deliver(ctx, handle, ev)
		case <-ctx.Done():
			b.drain(context.WithoutCancel(ctx), handle)
			return nil
		}
	}
}

func (b *LocalBus) drain(ctx context.Context, handle ports.EventHandler) {
	for {
		select {
		case ev := <-b.queue:
			b.deliver(ctx, handle, ev)
		default:
			return
		}
	}
}

func (b *LocalBus) deliver(ctx context.Context, handle ports.EventHandler, ev entity.DomainEvent) {
	if err := handle(ctx, ev); err != nil {
		b.log.Warn().Err(err).Str("event_type", ev.Type).Msg("evento procesado con errores")
	}
}
