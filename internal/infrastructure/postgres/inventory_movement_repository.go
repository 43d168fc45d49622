package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

const movementColumns = `id, company_id, product_id, type, quantity, previous_stock, new_stock, unit_cost, reference_id, reason, created_by, created_at`

// InventoryMovementRepo kardex sobre PostgreSQL (usable con pool o tx).
type InventoryMovementRepo struct {
	q Querier
}

// NewInventoryMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryMovementRepository(q Querier) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q}
}

// Create persiste un movimiento de inventario.
func (r *InventoryMovementRepo) Create(ctx context.Context, m *entity.InventoryMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO inventory_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.CompanyID, m.ProductID, m.Type, m.Quantity, m.PreviousStock, m.NewStock,
		m.UnitCost, m.ReferenceID, m.Reason, nullIfEmpty(m.CreatedBy), m.CreatedAt,
	)
	if err != nil {
		return mapWriteError(err, "create inventory movement")
	}
	return nil
}

// List movimientos de la empresa, más recientes primero, con rango [From, To).
func (r *InventoryMovementRepo) List(ctx context.Context, companyID string, f repository.MovementFilter) ([]*entity.InventoryMovement, int, error) {
	const where = `
		FROM inventory_movements
		WHERE company_id = $1
		  AND ($2 = '' OR product_id::text = $2)
		  AND ($3::timestamptz IS NULL OR created_at >= $3)
		  AND ($4::timestamptz IS NULL OR created_at < $4)`
	args := []any{companyID, f.ProductID, f.From, f.To}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count inventory movements: %w", err)
	}
	rows, err := r.q.Query(ctx,
		`SELECT `+movementColumns+where+` ORDER BY created_at DESC, id LIMIT $5 OFFSET $6`,
		append(args, limitArg(f.Limit), f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list inventory movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, m)
	}
	return list, total, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.InventoryMovement, error) {
	var (
		m         entity.InventoryMovement
		createdBy *string
	)
	if err := row.Scan(&m.ID, &m.CompanyID, &m.ProductID, &m.Type, &m.Quantity, &m.PreviousStock, &m.NewStock,
		&m.UnitCost, &m.ReferenceID, &m.Reason, &createdBy, &m.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan inventory movement: %w", err)
	}
	if createdBy != nil {
		m.CreatedBy = *createdBy
	}
	return &m, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
