package events

import (
	"context"
	"time"

	"github.com/jhoicas/taller-api/internal/application/ports"
	"github.com/jhoicas/taller-api/internal/domain/entity"
)

// Retry reintenta h hasta attempts veces, duplicando la espera entre intentos.
// Devuelve el último error, o ctx.Err() si el contexto se cancela mientras espera.
func Retry(h ports.EventHandler, attempts int, backoff time.Duration) ports.EventHandler {
	if attempts < 1 {
		attempts = 1
	}
	return func(ctx context.Context, ev entity.DomainEvent) error {
		wait := backoff
		var err error
		for i := 0; i < attempts; i++ {
			if i > 0 {
				select {
				case <-time.After(wait):
				case <-ctx.Done():
					return ctx.Err()
				}
				wait *= 2
			}
			if err = h(ctx, ev); err == nil {
				return nil
			}
		}
		return err
	}
}
