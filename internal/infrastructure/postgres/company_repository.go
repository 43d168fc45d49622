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

// Asegura que CompanyRepo implementa repository.CompanyRepository.
var (
	_ repository.CompanyRepository  = (*CompanyRepo)(nil)
	_ repository.SequenceRepository = (*SequenceRepo)(nil)
)

const companyColumns = `id, name, tax_id, address, phone, email, logo_url, status, created_at, updated_at`

// CompanyRepo implementación del puerto CompanyRepository sobre PostgreSQL (pool o tx).
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository construye el adaptador de persistencia para empresas.
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

// Create persiste una nueva empresa. NIT repetido → ErrDuplicate.
func (r *CompanyRepo) Create(ctx context.Context, company *entity.Company) error {
	query := `
		INSERT INTO companies (` + companyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		company.ID, company.Name, company.TaxID, company.Address,
		company.Phone, company.Email, company.LogoURL, company.Status,
		company.CreatedAt, company.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err, "insert company")
	}
	return nil
}

// GetByID obtiene una empresa por ID.
func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	return r.getOne(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id)
}

// GetByTaxID obtiene una empresa por NIT.
func (r *CompanyRepo) GetByTaxID(ctx context.Context, taxID string) (*entity.Company, error) {
	return r.getOne(ctx, `SELECT `+companyColumns+` FROM companies WHERE tax_id = $1`, taxID)
}

// Update actualiza los datos editables (nombre, dirección, teléfono, email, estado).
func (r *CompanyRepo) Update(ctx context.Context, company *entity.Company) error {
	query := `
		UPDATE companies SET name = $2, address = $3, phone = $4, email = $5, status = $6, updated_at = $7
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		company.ID, company.Name, company.Address, company.Phone, company.Email, company.Status, company.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err, "update company")
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateLogo guarda la URL del logo.
func (r *CompanyRepo) UpdateLogo(ctx context.Context, id, logoURL string) error {
	cmd, err := r.q.Exec(ctx, `UPDATE companies SET logo_url = $2, updated_at = now() WHERE id = $1`, id, logoURL)
	if err != nil {
		return fmt.Errorf("update company logo: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListActiveIDs IDs de las empresas activas (respaldos programados).
func (r *CompanyRepo) ListActiveIDs(ctx context.Context) ([]string, error) {
	rows, err := r.q.Query(ctx, `SELECT id FROM companies WHERE status = $1 ORDER BY created_at`, entity.CompanyStatusActive)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *CompanyRepo) getOne(ctx context.Context, query string, arg any) (*entity.Company, error) {
	var c entity.Company
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&c.ID, &c.Name, &c.TaxID, &c.Address, &c.Phone, &c.Email, &c.LogoURL, &c.Status,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return &c, nil
}

// SequenceRepo consecutivos por empresa sobre company_sequences.
// La fila queda bloqueada hasta el fin de la transacción: un rollback no consume número.
type SequenceRepo struct {
	q Querier
}

// NewSequenceRepository construye el adaptador. Debe recibir una tx.
func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

// Next incrementa y devuelve el consecutivo name de la empresa.
func (r *SequenceRepo) Next(ctx context.Context, companyID, name string) (int64, error) {
	const query = `
		INSERT INTO company_sequences (company_id, name, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (company_id, name) DO UPDATE SET last_value = company_sequences.last_value + 1
		RETURNING last_value`
	var n int64
	if err := r.q.QueryRow(ctx, query, companyID, name).Scan(&n); err != nil {
		return 0, fmt.Errorf("next sequence %s: %w", name, err)
	}
	return n, nil
}
