// Package events transporta los eventos de dominio: Kafka cuando hay brokers configurados,
// si no una cola en memoria dentro del mismo proceso.
package events

import (
	"context"
	"errors"

	"github.com/jhoicas/taller-api/internal/application/ports"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/pkg/logger"
)

// Fanout entrega cada evento a todos los handlers, en orden. Un handler que falla no impide
// que los demás lo reciban; los errores se registran y se devuelven unidos.
func Fanout(log *logger.Logger, handlers ...ports.EventHandler) ports.EventHandler {
	if log == nil {
		log = logger.Nop()
	}
	return func(ctx context.Context, ev entity.DomainEvent) error {
		var errs []error
		for _, h := range handlers {
			if h == nil {
				continue
			}
			if err := h(ctx, ev); err != nil {
				log.Error().Err(err).
					Str("event_type", ev.Type).
					Str("event_id", ev.ID).
					Str("company_id", ev.CompanyID).
					Msg("handler de evento falló")
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}
