// Package realtime reparte las notificaciones recibidas por LISTEN/NOTIFY a los clientes
// conectados por SSE, filtrando por empresa y usuario destino.
package realtime

import (
	"sync"

	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/pkg/logger"
)

const defaultBuffer = 16

// Subscription canal de un cliente conectado. Se cierra al cancelar o al cerrar el hub.
type Subscription struct {
	C         <-chan entity.Notification
	ch        chan entity.Notification
	companyID string
	userID    string
	hub       *Hub
	once      sync.Once
}

// Cancel da de baja la suscripción. Es seguro llamarlo más de una vez.
func (s *Subscription) Cancel() {
	s.once.Do(func() { s.hub.remove(s) })
}

// Hub registro de suscriptores por empresa.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	closed bool
	buffer int
	log    *logger.Logger
}

// NewHub construye el hub. buffer es la cantidad de notificaciones que un cliente lento
// puede acumular antes de que se le descarten.
func NewHub(buffer int, log *logger.Logger) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{subs: map[string]map[*Subscription]struct{}{}, buffer: buffer, log: log.Component("realtime")}
}

// Subscribe registra un cliente de la empresa companyID autenticado como userID.
// Con el hub cerrado devuelve una suscripción con el canal ya cerrado.
func (h *Hub) Subscribe(companyID, userID string) *Subscription {
	ch := make(chan entity.Notification, h.buffer)
	s := &Subscription{C: ch, ch: ch, companyID: companyID, userID: userID, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		s.once.Do(func() {})
		return s
	}
	set, ok := h.subs[companyID]
	if !ok {
		set = map[*Subscription]struct{}{}
		h.subs[companyID] = set
	}
	set[s] = struct{}{}
	return s
}

// Broadcast entrega n a los suscriptores que pueden verla. Nunca bloquea: si el buffer de un
// cliente está lleno la notificación se descarta para ese cliente.
func (h *Hub) Broadcast(n entity.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs[n.CompanyID] {
		if !n.VisibleTo(s.companyID, s.userID) {
			continue
		}
		select {
		case s.ch <- n:
		default:
			h.log.Warn().Str("company_id", s.companyID).Str("user_id", s.userID).Msg("cliente SSE lento, notificación descartada")
		}
	}
}

// Count suscriptores activos de una empresa.
func (h *Hub) Count(companyID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[companyID])
}

// Close cierra todos los canales; las suscripciones posteriores nacen cerradas.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, set := range h.subs {
		for s := range set {
			close(s.ch)
		}
	}
	h.subs = map[string]map[*Subscription]struct{}{}
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[s.companyID]
	if !ok {
		return
	}
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	close(s.ch)
	if len(set) == 0 {
		delete(h.subs, s.companyID)
	}
}
