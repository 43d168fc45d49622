package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
)

var _ repository.SupplierRepository = (*SupplierRepo)(nil)

const supplierColumns = `id, company_id, name, tax_id, contact_name, phone, email, address, notes, created_at, updated_at`

// SupplierRepo proveedores sobre PostgreSQL.
type SupplierRepo struct {
	q Querier
}

// NewSupplierRepository construye el adaptador.
func NewSupplierRepository(q Querier) *SupplierRepo {
	return &SupplierRepo{q: q}
}

func (r *SupplierRepo) Create(ctx context.Context, s *entity.Supplier) error {
	query := `
		INSERT INTO suppliers (` + supplierColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.CompanyID, s.Name, s.TaxID, s.ContactName, s.Phone, s.Email, s.Address, s.Notes,
		s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err, "insert supplier")
	}
	return nil
}

func (r *SupplierRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Supplier, error) {
	query := `SELECT ` + supplierColumns + ` FROM suppliers WHERE company_id = $1 AND id = $2`
	s, err := scanSupplier(r.q.QueryRow(ctx, query, companyID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func (r *SupplierRepo) List(ctx context.Context, companyID string, f repository.ListFilter) ([]*entity.Supplier, int, error) {
	const where = `
		FROM suppliers
		WHERE company_id = $1
		  AND ($2 = '' OR name ILIKE $2 OR tax_id ILIKE $2 OR contact_name ILIKE $2 OR phone ILIKE $2)`
	pattern := likePattern(f.Query)

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) `+where, companyID, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count suppliers: %w", err)
	}
	rows, err := r.q.Query(ctx,
		`SELECT `+supplierColumns+where+` ORDER BY name, id LIMIT $3 OFFSET $4`,
		companyID, pattern, limitArg(f.Limit), f.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list suppliers: %w", err)
	}
	defer rows.Close()
	var list []*entity.Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, s)
	}
	return list, total, rows.Err()
}

func (r *SupplierRepo) Update(ctx context.Context, s *entity.Supplier) error {
	query := `
		UPDATE suppliers SET name = $3, tax_id = $4, contact_name = $5, phone = $6, email = $7,
		       address = $8, notes = $9, updated_at = $10
		WHERE company_id = $1 AND id = $2`
	cmd, err := r.q.Exec(ctx, query,
		s.CompanyID, s.ID, s.Name, s.TaxID, s.ContactName, s.Phone, s.Email, s.Address, s.Notes, s.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err, "update supplier")
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el proveedor; los productos quedan sin proveedor (ON DELETE SET NULL).
func (r *SupplierRepo) Delete(ctx context.Context, companyID, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM suppliers WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return mapWriteError(err, "delete supplier")
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanSupplier(row pgx.Row) (*entity.Supplier, error) {
	var s entity.Supplier
	if err := row.Scan(&s.ID, &s.CompanyID, &s.Name, &s.TaxID, &s.ContactName, &s.Phone, &s.Email,
		&s.Address, &s.Notes, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan supplier: %w", err)
	}
	return &s, nil
}
