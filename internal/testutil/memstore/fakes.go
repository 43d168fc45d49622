package memstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jhoicas/taller-api/internal/application/ports"
	"github.com/jhoicas/taller-api/internal/domain/entity"
)

// ErrMiss fallo de caché.
var ErrMiss = errors.New("memstore: cache miss")

// Cache implementa ports.Cache sin expiración.
type Cache struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewCache crea una caché vacía.
func NewCache() *Cache { return &Cache{data: map[string][]byte{}} }

func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.data[key]; ok {
		return b, nil
	}
	return nil, ErrMiss
}

func (c *Cache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// Publisher guarda los eventos publicados.
type Publisher struct {
	mu     sync.Mutex
	events []entity.DomainEvent
}

func (p *Publisher) Publish(_ context.Context, ev entity.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

// Types tipos publicados en orden.
func (p *Publisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// Last último evento del tipo indicado.
func (p *Publisher) Last(typ string) (entity.DomainEvent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].Type == typ {
			return p.events[i], true
		}
	}
	return entity.DomainEvent{}, false
}

// Mailer guarda los correos enviados.
type Mailer struct {
	mu   sync.Mutex
	Sent []ports.Email
}

func (m *Mailer) Send(_ context.Context, msg ports.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, msg)
	return nil
}

// Renderer devuelve documentos fijos y recuerda los datos recibidos.
type Renderer struct {
	Receipt ports.ReceiptData
	Ticket  ports.TicketData
}

func (r *Renderer) SaleReceipt(_ context.Context, d ports.ReceiptData) ([]byte, error) {
	r.Receipt = d
	return []byte("%PDF-recibo"), nil
}

func (r *Renderer) WorkOrderTicket(_ context.Context, d ports.TicketData) ([]byte, error) {
	r.Ticket = d
	return []byte("%PDF-ticket"), nil
}

// Spreadsheet registra qué se exportó.
type Spreadsheet struct {
	Products []*entity.Product
	Backup   ports.BackupData
}

func (s *Spreadsheet) InventoryWorkbook(products []*entity.Product) ([]byte, error) {
	s.Products = products
	return []byte("xlsx-inventario"), nil
}

func (s *Spreadsheet) BackupWorkbook(d ports.BackupData) ([]byte, error) {
	s.Backup = d
	return []byte("xlsx-respaldo"), nil
}

// Storage guarda archivos en memoria.
type Storage struct {
	Files map[string][]byte
}

func (s *Storage) Save(_ context.Context, key string, data []byte) (string, error) {
	if s.Files == nil {
		s.Files = map[string][]byte{}
	}
	s.Files[key] = data
	return "/uploads/" + key, nil
}
