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

var _ repository.EmployeeRepository = (*EmployeeRepo)(nil)

const employeeColumns = `id, company_id, name, document_id, position, phone, email, salary, hire_date, status, created_at, updated_at`

// EmployeeRepo empleados sobre PostgreSQL.
type EmployeeRepo struct {
	q Querier
}

// NewEmployeeRepository construye el adaptador.
func NewEmployeeRepository(q Querier) *EmployeeRepo {
	return &EmployeeRepo{q: q}
}

func (r *EmployeeRepo) Create(ctx context.Context, e *entity.Employee) error {
	query := `
		INSERT INTO employees (` + employeeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		e.ID, e.CompanyID, e.Name, e.DocumentID, e.Position, e.Phone, e.Email,
		e.Salary, e.HireDate, e.Status, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err, "insert employee")
	}
	return nil
}

func (r *EmployeeRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE company_id = $1 AND id = $2`
	e, err := scanEmployee(r.q.QueryRow(ctx, query, companyID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

func (r *EmployeeRepo) List(ctx context.Context, companyID string, f repository.ListFilter) ([]*entity.Employee, int, error) {
	const where = `
		FROM employees
		WHERE company_id = $1
		  AND ($2 = '' OR name ILIKE $2 OR document_id ILIKE $2 OR phone ILIKE $2 OR position ILIKE $2)`
	pattern := likePattern(f.Query)

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) `+where, companyID, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count employees: %w", err)
	}
	rows, err := r.q.Query(ctx,
		`SELECT `+employeeColumns+where+` ORDER BY name, id LIMIT $3 OFFSET $4`,
		companyID, pattern, limitArg(f.Limit), f.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()
	var list []*entity.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, e)
	}
	return list, total, rows.Err()
}

func (r *EmployeeRepo) Update(ctx context.Context, e *entity.Employee) error {
	query := `
		UPDATE employees SET name = $3, document_id = $4, position = $5, phone = $6, email = $7,
		       salary = $8, hire_date = $9, status = $10, updated_at = $11
		WHERE company_id = $1 AND id = $2`
	cmd, err := r.q.Exec(ctx, query,
		e.CompanyID, e.ID, e.Name, e.DocumentID, e.Position, e.Phone, e.Email,
		e.Salary, e.HireDate, e.Status, e.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err, "update employee")
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el empleado; asignado a órdenes → ErrConflict.
func (r *EmployeeRepo) Delete(ctx context.Context, companyID, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM employees WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return mapWriteError(err, "delete employee")
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanEmployee(row pgx.Row) (*entity.Employee, error) {
	var e entity.Employee
	if err := row.Scan(&e.ID, &e.CompanyID, &e.Name, &e.DocumentID, &e.Position, &e.Phone, &e.Email,
		&e.Salary, &e.HireDate, &e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan employee: %w", err)
	}
	return &e, nil
}
