// Package memstore implementa los puertos de repositorio en memoria para las pruebas de los casos de uso.
// Las transacciones toman una copia del estado y la restauran si la función devuelve error.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
)

// Store estado compartido por todos los repositorios en memoria.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex

	companies     map[string]entity.Company
	users         map[string]entity.User
	customers     map[string]entity.Customer
	employees     map[string]entity.Employee
	suppliers     map[string]entity.Supplier
	products      map[string]entity.Product
	movements     []entity.InventoryMovement
	orders        map[string]entity.WorkOrder
	history       []entity.WorkOrderStatusChange
	sales         map[string]entity.Sale
	notifications []entity.Notification
	settings      map[string]entity.Setting
	sequences     map[string]int64
}

// New crea un Store vacío.
func New() *Store {
	return &Store{
		companies: map[string]entity.Company{},
		users:     map[string]entity.User{},
		customers: map[string]entity.Customer{},
		employees: map[string]entity.Employee{},
		suppliers: map[string]entity.Supplier{},
		products:  map[string]entity.Product{},
		orders:    map[string]entity.WorkOrder{},
		sales:     map[string]entity.Sale{},
		settings:  map[string]entity.Setting{},
		sequences: map[string]int64{},
	}
}

type snapshot struct {
	products      map[string]entity.Product
	movements     []entity.InventoryMovement
	orders        map[string]entity.WorkOrder
	history       []entity.WorkOrderStatusChange
	sales         map[string]entity.Sale
	sequences     map[string]int64
	companies     map[string]entity.Company
	users         map[string]entity.User
	notifications []entity.Notification
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		products:      make(map[string]entity.Product, len(s.products)),
		movements:     append([]entity.InventoryMovement(nil), s.movements...),
		orders:        make(map[string]entity.WorkOrder, len(s.orders)),
		history:       append([]entity.WorkOrderStatusChange(nil), s.history...),
		sales:         make(map[string]entity.Sale, len(s.sales)),
		sequences:     make(map[string]int64, len(s.sequences)),
		companies:     make(map[string]entity.Company, len(s.companies)),
		users:         make(map[string]entity.User, len(s.users)),
		notifications: append([]entity.Notification(nil), s.notifications...),
	}
	for k, v := range s.products {
		snap.products[k] = v
	}
	for k, v := range s.orders {
		snap.orders[k] = v
	}
	for k, v := range s.sales {
		v.Items = append([]entity.SaleItem(nil), v.Items...)
		snap.sales[k] = v
	}
	for k, v := range s.sequences {
		snap.sequences[k] = v
	}
	for k, v := range s.companies {
		snap.companies[k] = v
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = snap.products
	s.movements = snap.movements
	s.orders = snap.orders
	s.history = snap.history
	s.sales = snap.sales
	s.sequences = snap.sequences
	s.companies = snap.companies
	s.users = snap.users
	s.notifications = snap.notifications
}

func (s *Store) inTx(fn func() error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	snap := s.snapshot()
	if err := fn(); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// ── tx runners ────────────────────────────────────────────────────────────────

// RunSignup implementa auth.SignupTxRunner.
func (s *Store) RunSignup(_ context.Context, fn func(repository.CompanyRepository, repository.UserRepository) error) error {
	return s.inTx(func() error { return fn(s.Companies(), s.Users()) })
}

// Run implementa inventory.TxRunner.
func (s *Store) Run(_ context.Context, fn func(repository.InventoryMovementRepository, repository.ProductRepository) error) error {
	return s.inTx(func() error { return fn(s.Movements(), s.Products()) })
}

// RunWorkOrder implementa workorder.TxRunner.
func (s *Store) RunWorkOrder(_ context.Context, fn func(repository.WorkOrderRepository, repository.SequenceRepository) error) error {
	return s.inTx(func() error { return fn(s.WorkOrders(), s.Sequences()) })
}

// RunSales implementa sales.TxRunner.
func (s *Store) RunSales(_ context.Context, fn func(repository.SaleRepository, repository.ProductRepository, repository.InventoryMovementRepository, repository.SequenceRepository) error) error {
	return s.inTx(func() error { return fn(s.Sales(), s.Products(), s.Movements(), s.Sequences()) })
}

// ── accesores ────────────────────────────────────────────────────────────────

func (s *Store) Companies() repository.CompanyRepository           { return companyRepo{s} }
func (s *Store) Users() repository.UserRepository                  { return userRepo{s} }
func (s *Store) Customers() repository.CustomerRepository          { return customerRepo{s} }
func (s *Store) Employees() repository.EmployeeRepository          { return employeeRepo{s} }
func (s *Store) Suppliers() repository.SupplierRepository          { return supplierRepo{s} }
func (s *Store) Products() repository.ProductRepository            { return productRepo{s} }
func (s *Store) Movements() repository.InventoryMovementRepository { return movementRepo{s} }
func (s *Store) WorkOrders() repository.WorkOrderRepository        { return workOrderRepo{s} }
func (s *Store) Sales() repository.SaleRepository                  { return saleRepo{s} }
func (s *Store) Sequences() repository.SequenceRepository          { return sequenceRepo{s} }
func (s *Store) Notifications() repository.NotificationRepository  { return notificationRepo{s} }
func (s *Store) Settings() repository.SettingRepository            { return settingRepo{s} }

// MovementsOf devuelve los movimientos de un producto en orden de registro.
func (s *Store) MovementsOf(productID string) []entity.InventoryMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.InventoryMovement
	for _, m := range s.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out
}

// AllNotifications devuelve todas las notificaciones guardadas.
func (s *Store) AllNotifications() []entity.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.Notification(nil), s.notifications...)
}

// ── helpers ──────────────────────────────────────────────────────────────────

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func contains(q string, fields ...string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// ── companies / users ────────────────────────────────────────────────────────

type companyRepo struct{ s *Store }

func (r companyRepo) Create(_ context.Context, c *entity.Company) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.companies {
		if x.TaxID == c.TaxID {
			return domain.ErrDuplicate
		}
	}
	r.s.companies[c.ID] = *c
	return nil
}

func (r companyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.companies[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (r companyRepo) GetByTaxID(_ context.Context, taxID string) (*entity.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.companies {
		if c.TaxID == taxID {
			return &c, nil
		}
	}
	return nil, nil
}

func (r companyRepo) Update(_ context.Context, c *entity.Company) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.companies[c.ID] = *c
	return nil
}

func (r companyRepo) UpdateLogo(_ context.Context, id, logoURL string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.companies[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.LogoURL = logoURL
	r.s.companies[id] = c
	return nil
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.users {
		if x.Email == u.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r userRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r userRepo) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.User, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*entity.User
	for _, u := range r.s.users {
		if u.CompanyID == companyID {
			u := u
			all = append(all, &u)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })
	return page(all, limit, offset), len(all), nil
}

func (r userRepo) Update(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.users[u.ID] = *u
	return nil
}

func (r userRepo) UpdatePassword(_ context.Context, id, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	r.s.users[id] = u
	return nil
}

func (r userRepo) Delete(_ context.Context, companyID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok && u.CompanyID == companyID {
		delete(r.s.users, id)
		return nil
	}
	return domain.ErrUserNotFound
}

// ── customers / employees / suppliers ────────────────────────────────────────

type customerRepo struct{ s *Store }

func (r customerRepo) Create(_ context.Context, c *entity.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.customers {
		if c.DocumentID != "" && x.CompanyID == c.CompanyID && x.DocumentID == c.DocumentID {
			return domain.ErrDuplicate
		}
	}
	r.s.customers[c.ID] = *c
	return nil
}

func (r customerRepo) GetByID(_ context.Context, companyID, id string) (*entity.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.customers[id]; ok && c.CompanyID == companyID {
		return &c, nil
	}
	return nil, nil
}

func (r customerRepo) List(_ context.Context, companyID string, f repository.ListFilter) ([]*entity.Customer, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*entity.Customer
	for _, c := range r.s.customers {
		if c.CompanyID == companyID && contains(f.Query, c.Name, c.DocumentID, c.Phone, c.Email) {
			c := c
			all = append(all, &c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return page(all, f.Limit, f.Offset), len(all), nil
}

func (r customerRepo) Update(_ context.Context, c *entity.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.customers[c.ID] = *c
	return nil
}

func (r customerRepo) Delete(_ context.Context, companyID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, s := range r.s.sales {
		if s.CustomerID != nil && *s.CustomerID == id {
			return domain.ErrConflict
		}
	}
	for _, o := range r.s.orders {
		if o.CustomerID == id {
			return domain.ErrConflict
		}
	}
	delete(r.s.customers, id)
	return nil
}

type employeeRepo struct{ s *Store }

func (r employeeRepo) Create(_ context.Context, e *entity.Employee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.employees[e.ID] = *e
	return nil
}

func (r employeeRepo) GetByID(_ context.Context, companyID, id string) (*entity.Employee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e, ok := r.s.employees[id]; ok && e.CompanyID == companyID {
		return &e, nil
	}
	return nil, nil
}

func (r employeeRepo) List(_ context.Context, companyID string, f repository.ListFilter) ([]*entity.Employee, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*entity.Employee
	for _, e := range r.s.employees {
		if e.CompanyID == companyID && contains(f.Query, e.Name, e.DocumentID, e.Phone) {
			e := e
			all = append(all, &e)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return page(all, f.Limit, f.Offset), len(all), nil
}

func (r employeeRepo) Update(_ context.Context, e *entity.Employee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.employees[e.ID] = *e
	return nil
}

func (r employeeRepo) Delete(_ context.Context, _, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.orders {
		if o.TechnicianID != nil && *o.TechnicianID == id {
			return domain.ErrConflict
		}
	}
	delete(r.s.employees, id)
	return nil
}

type supplierRepo struct{ s *Store }

func (r supplierRepo) Create(_ context.Context, sup *entity.Supplier) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.suppliers[sup.ID] = *sup
	return nil
}

func (r supplierRepo) GetByID(_ context.Context, companyID, id string) (*entity.Supplier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if sup, ok := r.s.suppliers[id]; ok && sup.CompanyID == companyID {
		return &sup, nil
	}
	return nil, nil
}

func (r supplierRepo) List(_ context.Context, companyID string, f repository.ListFilter) ([]*entity.Supplier, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*entity.Supplier
	for _, sup := range r.s.suppliers {
		if sup.CompanyID == companyID && contains(f.Query, sup.Name, sup.TaxID, sup.Phone) {
			sup := sup
			all = append(all, &sup)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return page(all, f.Limit, f.Offset), len(all), nil
}

func (r supplierRepo) Update(_ context.Context, sup *entity.Supplier) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.suppliers[sup.ID] = *sup
	return nil
}

func (r supplierRepo) Delete(_ context.Context, _, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for k, p := range r.s.products {
		if p.SupplierID != nil && *p.SupplierID == id {
			p.SupplierID = nil
			r.s.products[k] = p
		}
	}
	delete(r.s.suppliers, id)
	return nil
}

// ── products / movements ─────────────────────────────────────────────────────

type productRepo struct{ s *Store }

func (r productRepo) Create(_ context.Context, p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.products {
		if x.CompanyID == p.CompanyID && x.SKU == p.SKU {
			return domain.ErrDuplicate
		}
	}
	r.s.products[p.ID] = *p
	return nil
}

func (r productRepo) GetByID(_ context.Context, companyID, id string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p, ok := r.s.products[id]; ok && p.CompanyID == companyID {
		return &p, nil
	}
	return nil, nil
}

func (r productRepo) GetByCompanyAndSKU(_ context.Context, companyID, sku string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.CompanyID == companyID && p.SKU == sku {
			return &p, nil
		}
	}
	return nil, nil
}

func (r productRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.Product, error) {
	return r.GetByID(ctx, companyID, id)
}

func (r productRepo) List(_ context.Context, companyID string, f repository.ProductFilter) ([]*entity.Product, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*entity.Product
	for _, p := range r.s.products {
		if p.CompanyID != companyID || !contains(f.Query, p.Name, p.SKU, p.Description) {
			continue
		}
		if (f.Category != "" && p.Category != f.Category) ||
			(f.SupplierID != "" && (p.SupplierID == nil || *p.SupplierID != f.SupplierID)) ||
			(f.LowStockOnly && !p.IsLowStock()) ||
			(f.ActiveOnly && !p.Active) {
			continue
		}
		p := p
		all = append(all, &p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SKU < all[j].SKU })
	return page(all, f.Limit, f.Offset), len(all), nil
}

func (r productRepo) Update(_ context.Context, p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.products[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stock, cost := cur.Stock, cur.Cost
	cur = *p
	cur.Stock, cur.Cost = stock, cost
	r.s.products[p.ID] = cur
	return nil
}

func (r productRepo) UpdateStock(_ context.Context, id string, stock int, cost decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Stock = stock
	p.Cost = cost
	p.UpdatedAt = time.Now()
	r.s.products[id] = p
	return nil
}

func (r productRepo) Delete(_ context.Context, _, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.movements {
		if m.ProductID == id {
			return domain.ErrConflict
		}
	}
	delete(r.s.products, id)
	return nil
}

type movementRepo struct{ s *Store }

func (r movementRepo) Create(_ context.Context, m *entity.InventoryMovement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.movements = append(r.s.movements, *m)
	return nil
}

func (r movementRepo) List(_ context.Context, companyID string, f repository.MovementFilter) ([]*entity.InventoryMovement, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*entity.InventoryMovement
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		m := r.s.movements[i]
		if m.CompanyID != companyID || (f.ProductID != "" && m.ProductID != f.ProductID) {
			continue
		}
		if (f.From != nil && m.CreatedAt.Before(*f.From)) || (f.To != nil && !m.CreatedAt.Before(*f.To)) {
			continue
		}
		all = append(all, &m)
	}
	return page(all, f.Limit, f.Offset), len(all), nil
}

// ── work orders / sequences ──────────────────────────────────────────────────

type workOrderRepo struct{ s *Store }

func (r workOrderRepo) Create(_ context.Context, o *entity.WorkOrder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.orders[o.ID] = *o
	return nil
}

func (r workOrderRepo) GetByID(_ context.Context, companyID, id string) (*entity.WorkOrder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if o, ok := r.s.orders[id]; ok && o.CompanyID == companyID {
		return &o, nil
	}
	return nil, nil
}

func (r workOrderRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.WorkOrder, error) {
	return r.GetByID(ctx, companyID, id)
}

func (r workOrderRepo) List(_ context.Context, companyID string, f repository.WorkOrderFilter) ([]*entity.WorkOrder, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*entity.WorkOrder
	for _, o := range r.s.orders {
		if o.CompanyID != companyID || !contains(f.Query, o.Number, o.DeviceType, o.Brand, o.Model, o.SerialNumber) {
			continue
		}
		if (f.Status != "" && o.Status != f.Status) || (f.CustomerID != "" && o.CustomerID != f.CustomerID) ||
			(f.TechnicianID != "" && (o.TechnicianID == nil || *o.TechnicianID != f.TechnicianID)) {
			continue
		}
		o := o
		all = append(all, &o)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Number > all[j].Number })
	return page(all, f.Limit, f.Offset), len(all), nil
}

func (r workOrderRepo) Update(_ context.Context, o *entity.WorkOrder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur := r.s.orders[o.ID]
	status, delivered := cur.Status, cur.DeliveredAt
	cur = *o
	cur.Status, cur.DeliveredAt = status, delivered
	r.s.orders[o.ID] = cur
	return nil
}

func (r workOrderRepo) UpdateStatus(_ context.Context, o *entity.WorkOrder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.orders[o.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.Status = o.Status
	cur.DeliveredAt = o.DeliveredAt
	cur.UpdatedAt = o.UpdatedAt
	r.s.orders[o.ID] = cur
	return nil
}

func (r workOrderRepo) Delete(_ context.Context, _, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.orders, id)
	return nil
}

func (r workOrderRepo) AddHistory(_ context.Context, c *entity.WorkOrderStatusChange) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.history = append(r.s.history, *c)
	return nil
}

func (r workOrderRepo) ListHistory(_ context.Context, companyID, workOrderID string) ([]*entity.WorkOrderStatusChange, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.WorkOrderStatusChange
	for _, h := range r.s.history {
		if h.CompanyID == companyID && h.WorkOrderID == workOrderID {
			h := h
			out = append(out, &h)
		}
	}
	return out, nil
}

type sequenceRepo struct{ s *Store }

func (r sequenceRepo) Next(_ context.Context, companyID, name string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := companyID + "/" + name
	r.s.sequences[k]++
	return r.s.sequences[k], nil
}

// ── sales ────────────────────────────────────────────────────────────────────

type saleRepo struct{ s *Store }

func cloneSale(s entity.Sale) *entity.Sale {
	s.Items = append([]entity.SaleItem(nil), s.Items...)
	return &s
}

func (r saleRepo) Create(_ context.Context, s *entity.Sale) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sales[s.ID] = *cloneSale(*s)
	return nil
}

func (r saleRepo) GetByID(_ context.Context, companyID, id string) (*entity.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if s, ok := r.s.sales[id]; ok && s.CompanyID == companyID {
		return cloneSale(s), nil
	}
	return nil, nil
}

func (r saleRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.Sale, error) {
	return r.GetByID(ctx, companyID, id)
}

func (r saleRepo) List(_ context.Context, companyID string, f repository.SaleFilter) ([]*entity.Sale, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*entity.Sale
	for _, s := range r.s.sales {
		if s.CompanyID != companyID || (f.Status != "" && s.Status != f.Status) {
			continue
		}
		if f.CustomerID != "" && (s.CustomerID == nil || *s.CustomerID != f.CustomerID) {
			continue
		}
		if (f.From != nil && s.CreatedAt.Before(*f.From)) || (f.To != nil && !s.CreatedAt.Before(*f.To)) {
			continue
		}
		c := cloneSale(s)
		c.Items = nil
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Number > all[j].Number })
	return page(all, f.Limit, f.Offset), len(all), nil
}

func (r saleRepo) Update(_ context.Context, s *entity.Sale) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sales[s.ID] = *cloneSale(*s)
	return nil
}

func (r saleRepo) UpdateStatus(_ context.Context, s *entity.Sale) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.sales[s.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.Status = s.Status
	cur.CancelReason = s.CancelReason
	cur.CancelledAt = s.CancelledAt
	cur.UpdatedAt = s.UpdatedAt
	r.s.sales[s.ID] = cur
	return nil
}

// ── notifications / settings ─────────────────────────────────────────────────

type notificationRepo struct{ s *Store }

func (r notificationRepo) Create(_ context.Context, n *entity.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.notifications = append(r.s.notifications, *n)
	return nil
}

func (r notificationRepo) List(_ context.Context, companyID string, f repository.NotificationFilter) ([]*entity.Notification, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*entity.Notification
	for i := len(r.s.notifications) - 1; i >= 0; i-- {
		n := r.s.notifications[i]
		if !n.VisibleTo(companyID, f.UserID) || (f.UnreadOnly && n.ReadAt != nil) {
			continue
		}
		all = append(all, &n)
	}
	return page(all, f.Limit, f.Offset), len(all), nil
}

func (r notificationRepo) MarkRead(_ context.Context, companyID, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, n := range r.s.notifications {
		if n.ID == id && n.VisibleTo(companyID, userID) {
			if n.ReadAt == nil {
				now := time.Now()
				r.s.notifications[i].ReadAt = &now
			}
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r notificationRepo) MarkAllRead(_ context.Context, companyID, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	now := time.Now()
	for i, n := range r.s.notifications {
		if n.VisibleTo(companyID, userID) && n.ReadAt == nil {
			r.s.notifications[i].ReadAt = &now
			count++
		}
	}
	return count, nil
}

type settingRepo struct{ s *Store }

func (r settingRepo) Get(_ context.Context, companyID, key string) (*entity.Setting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if st, ok := r.s.settings[companyID+"/"+key]; ok {
		return &st, nil
	}
	return nil, nil
}

func (r settingRepo) Upsert(_ context.Context, st *entity.Setting) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.settings[st.CompanyID+"/"+st.Key] = *st
	return nil
}
