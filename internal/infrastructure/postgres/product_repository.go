package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, company_id, supplier_id, sku, name, description, category, price, cost, stock, min_stock, active, created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto. SKU repetido en la empresa → ErrDuplicate.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		product.ID, product.CompanyID, product.SupplierID, product.SKU, product.Name, product.Description,
		product.Category, product.Price, product.Cost, product.Stock, product.MinStock, product.Active,
		product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err, "insert product")
	}
	return nil
}

// GetByID obtiene un producto de la empresa.
func (r *ProductRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE company_id = $1 AND id = $2`, companyID, id)
}

// GetByCompanyAndSKU obtiene un producto por empresa y SKU.
func (r *ProductRepo) GetByCompanyAndSKU(ctx context.Context, companyID, sku string) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE company_id = $1 AND sku = $2`, companyID, sku)
}

// GetForUpdate lee el producto bloqueando la fila hasta el fin de la transacción.
func (r *ProductRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE company_id = $1 AND id = $2 FOR UPDATE`, companyID, id)
}

// List filtra por texto (SKU o nombre), categoría, proveedor, stock bajo y activos.
func (r *ProductRepo) List(ctx context.Context, companyID string, f repository.ProductFilter) ([]*entity.Product, int, error) {
	const where = `
		FROM products
		WHERE company_id = $1
		  AND ($2 = '' OR sku ILIKE $2 OR name ILIKE $2)
		  AND ($3 = '' OR category = $3)
		  AND ($4 = '' OR supplier_id::text = $4)
		  AND (NOT $5::boolean OR stock <= min_stock)
		  AND (NOT $6::boolean OR active)`
	args := []any{companyID, likePattern(f.Query), f.Category, f.SupplierID, f.LowStockOnly, f.ActiveOnly}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	rows, err := r.q.Query(ctx,
		`SELECT `+productColumns+where+` ORDER BY sku LIMIT $7 OFFSET $8`,
		append(args, limitArg(f.Limit), f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, p)
	}
	return list, total, rows.Err()
}

// Update actualiza un producto existente. No permite modificar Cost ni Stock (se manejan vía movimientos).
func (r *ProductRepo) Update(ctx context.Context, product *entity.Product) error {
	query := `
		UPDATE products SET supplier_id = $3, name = $4, description = $5, category = $6, price = $7,
		       min_stock = $8, active = $9, updated_at = $10
		WHERE company_id = $1 AND id = $2`
	cmd, err := r.q.Exec(ctx, query,
		product.CompanyID, product.ID, product.SupplierID, product.Name, product.Description, product.Category,
		product.Price, product.MinStock, product.Active, product.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err, "update product")
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateStock fija stock y costo promedio (usado por el motor de inventario dentro de una tx).
func (r *ProductRepo) UpdateStock(ctx context.Context, id string, stock int, cost decimal.Decimal) error {
	_, err := r.q.Exec(ctx,
		`UPDATE products SET stock = $2, cost = $3, updated_at = now() WHERE id = $1`,
		id, stock, cost,
	)
	if err != nil {
		if isCheckViolation(err) {
			return domain.ErrInsufficientStock
		}
		return fmt.Errorf("update product stock: %w", err)
	}
	return nil
}

// Delete elimina un producto. Con movimientos o ventas → ErrConflict.
func (r *ProductRepo) Delete(ctx context.Context, companyID, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM products WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return mapWriteError(err, "delete product")
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ProductRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	if err := row.Scan(&p.ID, &p.CompanyID, &p.SupplierID, &p.SKU, &p.Name, &p.Description, &p.Category,
		&p.Price, &p.Cost, &p.Stock, &p.MinStock, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return &p, nil
}
