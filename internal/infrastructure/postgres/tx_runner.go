package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/taller-api/internal/application/auth"
	"github.com/jhoicas/taller-api/internal/application/inventory"
	"github.com/jhoicas/taller-api/internal/application/sales"
	"github.com/jhoicas/taller-api/internal/application/workorder"
	"github.com/jhoicas/taller-api/internal/domain/repository"
)

var (
	_ auth.SignupTxRunner = (*TxRunner)(nil)
	_ inventory.TxRunner  = (*TxRunner)(nil)
	_ workorder.TxRunner  = (*TxRunner)(nil)
	_ sales.TxRunner      = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// inTx abre la transacción, ejecuta fn y hace Commit; cualquier error deja Rollback.
func (r *TxRunner) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunSignup crea empresa y usuario administrador juntos.
func (r *TxRunner) RunSignup(ctx context.Context, fn func(
	companies repository.CompanyRepository,
	users repository.UserRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewCompanyRepository(tx), NewUserRepository(tx))
	})
}

// Run inicia una transacción con repos de inventario (movimientos manuales).
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.InventoryMovementRepository,
	productRepo repository.ProductRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewInventoryMovementRepository(tx), NewProductRepository(tx))
	})
}

// RunWorkOrder transacción para alta de órdenes (consecutivo) y cambios de estado.
func (r *TxRunner) RunWorkOrder(ctx context.Context, fn func(
	orders repository.WorkOrderRepository,
	seqs repository.SequenceRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewWorkOrderRepository(tx), NewSequenceRepository(tx))
	})
}

// RunSales transacción de ventas: cabecera, líneas, stock, kardex y consecutivo.
func (r *TxRunner) RunSales(ctx context.Context, fn func(
	sales repository.SaleRepository,
	products repository.ProductRepository,
	movements repository.InventoryMovementRepository,
	seqs repository.SequenceRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewSaleRepository(tx), NewProductRepository(tx), NewInventoryMovementRepository(tx), NewSequenceRepository(tx))
	})
}
