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

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

const customerColumns = `id, company_id, name, document_id, email, phone, address, notes, created_at, updated_at`

// CustomerRepo implementación de CustomerRepository (usable con pool o tx).
type CustomerRepo struct {
	q Querier
}

// NewCustomerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCustomerRepository(q Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

// Create persiste un nuevo cliente. Documento repetido en la empresa → ErrDuplicate.
func (r *CustomerRepo) Create(ctx context.Context, customer *entity.Customer) error {
	query := `
		INSERT INTO customers (` + customerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		customer.ID, customer.CompanyID, customer.Name, customer.DocumentID, customer.Email, customer.Phone,
		customer.Address, customer.Notes, customer.CreatedAt, customer.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err, "insert customer")
	}
	return nil
}

// GetByID obtiene un cliente de la empresa.
func (r *CustomerRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE company_id = $1 AND id = $2`
	c, err := scanCustomer(r.q.QueryRow(ctx, query, companyID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// List busca por nombre, documento, teléfono o email (ILIKE) y pagina por nombre.
func (r *CustomerRepo) List(ctx context.Context, companyID string, f repository.ListFilter) ([]*entity.Customer, int, error) {
	const where = `
		FROM customers
		WHERE company_id = $1
		  AND ($2 = '' OR name ILIKE $2 OR document_id ILIKE $2 OR phone ILIKE $2 OR email ILIKE $2)`
	pattern := likePattern(f.Query)

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) `+where, companyID, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}
	rows, err := r.q.Query(ctx,
		`SELECT `+customerColumns+where+` ORDER BY name, id LIMIT $3 OFFSET $4`,
		companyID, pattern, limitArg(f.Limit), f.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()
	var list []*entity.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, c)
	}
	return list, total, rows.Err()
}

// Update actualiza un cliente.
func (r *CustomerRepo) Update(ctx context.Context, customer *entity.Customer) error {
	query := `
		UPDATE customers SET name = $3, document_id = $4, email = $5, phone = $6, address = $7, notes = $8, updated_at = $9
		WHERE company_id = $1 AND id = $2`
	cmd, err := r.q.Exec(ctx, query,
		customer.CompanyID, customer.ID, customer.Name, customer.DocumentID, customer.Email, customer.Phone,
		customer.Address, customer.Notes, customer.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err, "update customer")
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el cliente; con ventas u órdenes la FK lo impide → ErrConflict.
func (r *CustomerRepo) Delete(ctx context.Context, companyID, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM customers WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return mapWriteError(err, "delete customer")
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanCustomer(row pgx.Row) (*entity.Customer, error) {
	var c entity.Customer
	if err := row.Scan(&c.ID, &c.CompanyID, &c.Name, &c.DocumentID, &c.Email, &c.Phone,
		&c.Address, &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan customer: %w", err)
	}
	return &c, nil
}
