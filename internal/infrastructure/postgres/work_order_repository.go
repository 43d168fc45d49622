package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
)

var _ repository.WorkOrderRepository = (*WorkOrderRepo)(nil)

const workOrderColumns = `id, company_id, number, customer_id, technician_id, device_type, brand, model, serial_number,
	reported_issue, diagnosis, estimated_cost, final_cost, advance_payment, status, promised_at, delivered_at,
	notes, created_by, created_at, updated_at`

// WorkOrderRepo órdenes de trabajo y su historial de estados.
type WorkOrderRepo struct {
	q Querier
}

// NewWorkOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewWorkOrderRepository(q Querier) *WorkOrderRepo {
	return &WorkOrderRepo{q: q}
}

func (r *WorkOrderRepo) Create(ctx context.Context, o *entity.WorkOrder) error {
	query := `
		INSERT INTO work_orders (` + workOrderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`
	_, err := r.q.Exec(ctx, query,
		o.ID, o.CompanyID, o.Number, o.CustomerID, o.TechnicianID, o.DeviceType, o.Brand, o.Model, o.SerialNumber,
		o.ReportedIssue, o.Diagnosis, o.EstimatedCost, o.FinalCost, o.AdvancePayment, o.Status, o.PromisedAt,
		o.DeliveredAt, o.Notes, nullIfEmpty(o.CreatedBy), o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err, "insert work order")
	}
	return nil
}

func (r *WorkOrderRepo) GetByID(ctx context.Context, companyID, id string) (*entity.WorkOrder, error) {
	return r.getOne(ctx, `SELECT `+workOrderColumns+` FROM work_orders WHERE company_id = $1 AND id = $2`, companyID, id)
}

// GetForUpdate bloquea la orden para cambiar su estado.
func (r *WorkOrderRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.WorkOrder, error) {
	return r.getOne(ctx, `SELECT `+workOrderColumns+` FROM work_orders WHERE company_id = $1 AND id = $2 FOR UPDATE`, companyID, id)
}

// List filtra por estado, cliente, técnico y texto (número, equipo, serial); más recientes primero.
func (r *WorkOrderRepo) List(ctx context.Context, companyID string, f repository.WorkOrderFilter) ([]*entity.WorkOrder, int, error) {
	const where = `
		FROM work_orders
		WHERE company_id = $1
		  AND ($2 = '' OR status = $2)
		  AND ($3 = '' OR customer_id::text = $3)
		  AND ($4 = '' OR technician_id::text = $4)
		  AND ($5 = '' OR number ILIKE $5 OR device_type ILIKE $5 OR brand ILIKE $5 OR model ILIKE $5 OR serial_number ILIKE $5)`
	args := []any{companyID, f.Status, f.CustomerID, f.TechnicianID, likePattern(f.Query)}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count work orders: %w", err)
	}
	rows, err := r.q.Query(ctx,
		`SELECT `+workOrderColumns+where+` ORDER BY number DESC LIMIT $6 OFFSET $7`,
		append(args, limitArg(f.Limit), f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list work orders: %w", err)
	}
	defer rows.Close()
	var list []*entity.WorkOrder
	for rows.Next() {
		o, err := scanWorkOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, o)
	}
	return list, total, rows.Err()
}

// Update guarda los datos editables; número, cliente, estado y fechas de estado no cambian aquí.
func (r *WorkOrderRepo) Update(ctx context.Context, o *entity.WorkOrder) error {
	query := `
		UPDATE work_orders SET technician_id = $3, device_type = $4, brand = $5, model = $6, serial_number = $7,
		       reported_issue = $8, diagnosis = $9, estimated_cost = $10, final_cost = $11, advance_payment = $12,
		       promised_at = $13, notes = $14, updated_at = $15
		WHERE company_id = $1 AND id = $2`
	cmd, err := r.q.Exec(ctx, query,
		o.CompanyID, o.ID, o.TechnicianID, o.DeviceType, o.Brand, o.Model, o.SerialNumber,
		o.ReportedIssue, o.Diagnosis, o.EstimatedCost, o.FinalCost, o.AdvancePayment,
		o.PromisedAt, o.Notes, o.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err, "update work order")
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateStatus guarda estado y fecha de entrega.
func (r *WorkOrderRepo) UpdateStatus(ctx context.Context, o *entity.WorkOrder) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE work_orders SET status = $3, delivered_at = $4, updated_at = $5 WHERE company_id = $1 AND id = $2`,
		o.CompanyID, o.ID, o.Status, o.DeliveredAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update work order status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina la orden y su historial (ON DELETE CASCADE).
func (r *WorkOrderRepo) Delete(ctx context.Context, companyID, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM work_orders WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return mapWriteError(err, "delete work order")
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *WorkOrderRepo) AddHistory(ctx context.Context, c *entity.WorkOrderStatusChange) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO work_order_status_history (id, company_id, work_order_id, from_status, to_status, note, changed_by, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.CompanyID, c.WorkOrderID, c.FromStatus, c.ToStatus, c.Note, nullIfEmpty(c.ChangedBy), c.ChangedAt)
	if err != nil {
		return mapWriteError(err, "insert work order history")
	}
	return nil
}

// ListHistory historial en orden cronológico.
func (r *WorkOrderRepo) ListHistory(ctx context.Context, companyID, workOrderID string) ([]*entity.WorkOrderStatusChange, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, company_id, work_order_id, from_status, to_status, note, COALESCE(changed_by::text, ''), changed_at
		FROM work_order_status_history
		WHERE company_id = $1 AND work_order_id = $2
		ORDER BY changed_at, id`, companyID, workOrderID)
	if err != nil {
		return nil, fmt.Errorf("list work order history: %w", err)
	}
	defer rows.Close()
	var list []*entity.WorkOrderStatusChange
	for rows.Next() {
		var c entity.WorkOrderStatusChange
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.WorkOrderID, &c.FromStatus, &c.ToStatus, &c.Note,
			&c.ChangedBy, &c.ChangedAt); err != nil {
			return nil, fmt.Errorf("scan work order history: %w", err)
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}

func (r *WorkOrderRepo) getOne(ctx context.Context, query string, args ...any) (*entity.WorkOrder, error) {
	o, err := scanWorkOrder(r.q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return o, err
}

func scanWorkOrder(row pgx.Row) (*entity.WorkOrder, error) {
	var (
		o         entity.WorkOrder
		createdBy *string
	)
	if err := row.Scan(&o.ID, &o.CompanyID, &o.Number, &o.CustomerID, &o.TechnicianID, &o.DeviceType, &o.Brand,
		&o.Model, &o.SerialNumber, &o.ReportedIssue, &o.Diagnosis, &o.EstimatedCost, &o.FinalCost,
		&o.AdvancePayment, &o.Status, &o.PromisedAt, &o.DeliveredAt, &o.Notes, &createdBy,
		&o.CreatedAt, &o.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan work order: %w", err)
	}
	if createdBy != nil {
		o.CreatedBy = *createdBy
	}
	return &o, nil
}
