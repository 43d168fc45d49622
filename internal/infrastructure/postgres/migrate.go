package postgres

import (
	"context"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/jhoicas/taller-api/migrations"
)

// Migrator aplica las migraciones embebidas con goose sobre el pool de la app.
type Migrator struct {
	pool *pgxpool.Pool
}

// NewMigrator construye el migrador.
func NewMigrator(pool *pgxpool.Pool) *Migrator {
	return &Migrator{pool: pool}
}

func (m *Migrator) provider() (*goose.Provider, io.Closer, error) {
	db := stdlib.OpenDBFromPool(m.pool)
	p, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("goose provider: %w", err)
	}
	return p, db, nil
}

// Up aplica todas las migraciones pendientes y devuelve cuántas se aplicaron.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	p, closer, err := m.provider()
	if err != nil {
		return 0, err
	}
	defer closer.Close()
	res, err := p.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("migrate up: %w", err)
	}
	return len(res), nil
}

// Down revierte la última migración aplicada.
func (m *Migrator) Down(ctx context.Context) error {
	p, closer, err := m.provider()
	if err != nil {
		return err
	}
	defer closer.Close()
	if _, err := p.Down(ctx); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// MigrationStatus estado de una migración.
type MigrationStatus struct {
	Version int64
	Source  string
	Applied bool
}

// Status lista las migraciones conocidas y si están aplicadas.
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	p, closer, err := m.provider()
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	list, err := p.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate status: %w", err)
	}
	out := make([]MigrationStatus, 0, len(list))
	for _, s := range list {
		out = append(out, MigrationStatus{
			Version: s.Source.Version,
			Source:  s.Source.Path,
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}
