package ports

import (
	"context"

	"github.com/jhoicas/taller-api/internal/domain/entity"
)

// EventPublisher publica eventos de dominio después del commit.
// Una falla de publicación no revierte la operación de negocio; el caller solo la registra.
type EventPublisher interface {
	Publish(ctx context.Context, event entity.DomainEvent) error
}

// EventHandler procesa un evento consumido del bus.
type EventHandler func(ctx context.Context, event entity.DomainEvent) error
