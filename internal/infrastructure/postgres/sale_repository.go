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

var _ repository.SaleRepository = (*SaleRepo)(nil)

const saleColumns = `id, company_id, number, customer_id, user_id, payment_method, subtotal, discount, total, paid, change_amount,
	status, notes, cancel_reason, cancelled_at, created_at, updated_at`

// SaleRepo ventas (cabecera) y productos_venta (líneas).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create inserta cabecera y líneas; debe correr en la misma tx que descuenta el stock.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	query := `
		INSERT INTO sales (` + saleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.CompanyID, s.Number, s.CustomerID, s.UserID, s.PaymentMethod, s.Subtotal, s.Discount, s.Total,
		s.Paid, s.Change, s.Status, s.Notes, s.CancelReason, s.CancelledAt, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err, "insert sale")
	}
	return r.insertItems(ctx, s)
}

func (r *SaleRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Sale, error) {
	return r.getOne(ctx, `SELECT `+saleColumns+` FROM sales WHERE company_id = $1 AND id = $2`, companyID, id)
}

// GetForUpdate bloquea la cabecera; las líneas solo se tocan a través de ella.
func (r *SaleRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.Sale, error) {
	return r.getOne(ctx, `SELECT `+saleColumns+` FROM sales WHERE company_id = $1 AND id = $2 FOR UPDATE`, companyID, id)
}

// List filtra por rango [From, To), estado y cliente; más recientes primero, con líneas.
func (r *SaleRepo) List(ctx context.Context, companyID string, f repository.SaleFilter) ([]*entity.Sale, int, error) {
	const where = `
		FROM sales
		WHERE company_id = $1
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		  AND ($3::timestamptz IS NULL OR created_at < $3)
		  AND ($4 = '' OR status = $4)
		  AND ($5 = '' OR customer_id::text = $5)`
	args := []any{companyID, f.From, f.To, f.Status, f.CustomerID}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sales: %w", err)
	}
	rows, err := r.q.Query(ctx,
		`SELECT `+saleColumns+where+` ORDER BY number DESC LIMIT $6 OFFSET $7`,
		append(args, limitArg(f.Limit), f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list sales: %w", err)
	}
	var (
		list []*entity.Sale
		ids  []string
	)
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			rows.Close()
			return nil, 0, err
		}
		list = append(list, s)
		ids = append(ids, s.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list sales: %w", err)
	}
	if len(ids) == 0 {
		return list, total, nil
	}

	items, err := r.items(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, s := range list {
		s.Items = items[s.ID]
	}
	return list, total, nil
}

// Update reescribe la cabecera y reemplaza las líneas.
func (r *SaleRepo) Update(ctx context.Context, s *entity.Sale) error {
	query := `
		UPDATE sales SET customer_id = $3, payment_method = $4, subtotal = $5, discount = $6, total = $7,
		       paid = $8, change_amount = $9, notes = $10, updated_at = $11
		WHERE company_id = $1 AND id = $2`
	cmd, err := r.q.Exec(ctx, query,
		s.CompanyID, s.ID, s.CustomerID, s.PaymentMethod, s.Subtotal, s.Discount, s.Total,
		s.Paid, s.Change, s.Notes, s.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err, "update sale")
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, s.ID); err != nil {
		return fmt.Errorf("delete sale items: %w", err)
	}
	return r.insertItems(ctx, s)
}

// UpdateStatus guarda estado y datos de anulación.
func (r *SaleRepo) UpdateStatus(ctx context.Context, s *entity.Sale) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE sales SET status = $3, cancel_reason = $4, cancelled_at = $5, updated_at = $6
		WHERE company_id = $1 AND id = $2`,
		s.CompanyID, s.ID, s.Status, s.CancelReason, s.CancelledAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update sale status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SaleRepo) insertItems(ctx context.Context, s *entity.Sale) error {
	for i := range s.Items {
		it := &s.Items[i]
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		it.SaleID = s.ID
		_, err := r.q.Exec(ctx, `
			INSERT INTO sale_items (id, sale_id, product_id, product_name, quantity, unit_price, subtotal, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			it.ID, it.SaleID, it.ProductID, it.ProductName, it.Quantity, it.UnitPrice, it.Subtotal, i)
		if err != nil {
			return mapWriteError(err, "insert sale item")
		}
	}
	return nil
}

func (r *SaleRepo) items(ctx context.Context, saleIDs []string) (map[string][]entity.SaleItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, sale_id, product_id, product_name, quantity, unit_price, subtotal
		FROM sale_items WHERE sale_id = ANY($1::uuid[])
		ORDER BY sale_id, position`, saleIDs)
	if err != nil {
		return nil, fmt.Errorf("list sale items: %w", err)
	}
	defer rows.Close()
	out := make(map[string][]entity.SaleItem, len(saleIDs))
	for rows.Next() {
		var it entity.SaleItem
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice, &it.Subtotal); err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		out[it.SaleID] = append(out[it.SaleID], it)
	}
	return out, rows.Err()
}

func (r *SaleRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Sale, error) {
	s, err := scanSale(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	items, err := r.items(ctx, []string{s.ID})
	if err != nil {
		return nil, err
	}
	s.Items = items[s.ID]
	return s, nil
}

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	if err := row.Scan(&s.ID, &s.CompanyID, &s.Number, &s.CustomerID, &s.UserID, &s.PaymentMethod,
		&s.Subtotal, &s.Discount, &s.Total, &s.Paid, &s.Change, &s.Status, &s.Notes, &s.CancelReason,
		&s.CancelledAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan sale: %w", err)
	}
	return &s, nil
}
