// Package workorder contiene las reglas del ciclo de vida de una orden de trabajo.
package workorder

import (
	"fmt"

	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
)

// lifecycle es el único recorrido permitido: pendiente → en_proceso → finalizado → entregado.
var lifecycle = []string{
	entity.WorkOrderPending,
	entity.WorkOrderInProgress,
	entity.WorkOrderFinished,
	entity.WorkOrderDelivered,
}

// IsValidStatus indica si s es un estado conocido.
func IsValidStatus(s string) bool {
	return position(s) >= 0
}

// Next devuelve el estado siguiente a current, o "" si current es terminal o desconocido.
func Next(current string) string {
	i := position(current)
	if i < 0 || i == len(lifecycle)-1 {
		return ""
	}
	return lifecycle[i+1]
}

// ValidateTransition permite avanzar exactamente un paso. Saltos, retrocesos y
// cambios desde entregado devuelven domain.ErrInvalidTransition.
func ValidateTransition(from, to string) error {
	if !IsValidStatus(to) {
		return fmt.Errorf("%w: estado desconocido %q", domain.ErrInvalidInput, to)
	}
	if Next(from) != to {
		return fmt.Errorf("%w: %s → %s", domain.ErrInvalidTransition, from, to)
	}
	return nil
}

// IsOpen indica si la orden sigue en el taller (no entregada).
func IsOpen(status string) bool {
	return status != entity.WorkOrderDelivered
}

// Statuses devuelve el recorrido completo en orden.
func Statuses() []string {
	out := make([]string, len(lifecycle))
	copy(out, lifecycle)
	return out
}

func position(s string) int {
	for i, st := range lifecycle {
		if st == s {
			return i
		}
	}
	return -1
}
