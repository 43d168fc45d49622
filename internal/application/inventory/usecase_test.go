package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
	"github.com/jhoicas/taller-api/internal/testutil/memstore"
)

const companyID = "c1"

func newUseCase(t *testing.T) (*RegisterMovementUseCase, *memstore.Store, *memstore.Publisher) {
	t.Helper()
	store := memstore.New()
	require.NoError(t, store.Products().Create(context.Background(), &entity.Product{
		ID: "p1", CompanyID: companyID, SKU: "BAT-01", Name: "Batería",
		Price: decimal.NewFromInt(80), Cost: decimal.NewFromInt(40), Stock: 10, MinStock: 3, Active: true,
	}))
	pub := &memstore.Publisher{}
	uc := NewRegisterMovementUseCase(store, store.Products(), store.Movements(), &memstore.Spreadsheet{}, pub, nil)
	return uc, store, pub
}

func cost(v int64) *decimal.Decimal {
	c := decimal.NewFromInt(v)
	return &c
}

func product(t *testing.T, store *memstore.Store) *entity.Product {
	t.Helper()
	p, err := store.Products().GetByID(context.Background(), companyID, "p1")
	require.NoError(t, err)
	return p
}

func TestRegisterMovement_INRecalculaCostoPromedio(t *testing.T) {
	uc, store, _ := newUseCase(t)

	mov, err := uc.RegisterMovement(context.Background(), MovementInputDTO{
		CompanyID: companyID, UserID: "u1", ProductID: "p1",
		Type: entity.MovementTypeIN, Quantity: 10, UnitCost: cost(60),
	})
	require.NoError(t, err)
	assert.Equal(t, 10, mov.PreviousStock)
	assert.Equal(t, 20, mov.NewStock)

	p := product(t, store)
	assert.Equal(t, 20, p.Stock)
	assert.True(t, decimal.NewFromInt(50).Equal(p.Cost), "(10×40 + 10×60) / 20")
}

func TestRegisterMovement_OUTNoBajaDeCero(t *testing.T) {
	uc, store, _ := newUseCase(t)

	_, err := uc.RegisterMovement(context.Background(), MovementInputDTO{
		CompanyID: companyID, ProductID: "p1", Type: entity.MovementTypeOUT, Quantity: 11,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 10, product(t, store).Stock)
	assert.Empty(t, store.MovementsOf("p1"))
}

func TestRegisterMovement_AjusteFijaElConteo(t *testing.T) {
	uc, store, pub := newUseCase(t)

	mov, err := uc.RegisterMovement(context.Background(), MovementInputDTO{
		CompanyID: companyID, ProductID: "p1", Type: entity.MovementTypeADJUSTMENT, Quantity: 2, Reason: "conteo físico",
	})
	require.NoError(t, err)
	assert.Equal(t, -8, mov.Quantity)
	assert.Equal(t, 2, product(t, store).Stock)

	ev, ok := pub.Last(entity.EventProductLowStock)
	require.True(t, ok, "10 → 2 cruza el mínimo 3")
	assert.Equal(t, "BAT-01", ev.Data["sku"])

	_, err = uc.RegisterMovement(context.Background(), MovementInputDTO{
		CompanyID: companyID, ProductID: "p1", Type: entity.MovementTypeADJUSTMENT, Quantity: 2,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "conteo igual al stock")
}

func TestRegisterMovement_Validaciones(t *testing.T) {
	uc, _, _ := newUseCase(t)
	ctx := context.Background()

	cases := map[string]MovementInputDTO{
		"IN sin costo":      {ProductID: "p1", Type: entity.MovementTypeIN, Quantity: 1},
		"OUT cantidad cero": {ProductID: "p1", Type: entity.MovementTypeOUT},
		"ajuste negativo":   {ProductID: "p1", Type: entity.MovementTypeADJUSTMENT, Quantity: -1},
		"tipo de venta":     {ProductID: "p1", Type: entity.MovementTypeSale, Quantity: 1},
		"sin producto":      {Type: entity.MovementTypeOUT, Quantity: 1},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			in.CompanyID = companyID
			_, err := uc.RegisterMovement(ctx, in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	_, err := uc.RegisterMovement(ctx, MovementInputDTO{CompanyID: "otra", ProductID: "p1", Type: entity.MovementTypeOUT, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListMovements(t *testing.T) {
	uc, _, _ := newUseCase(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := uc.RegisterMovement(ctx, MovementInputDTO{CompanyID: companyID, ProductID: "p1", Type: entity.MovementTypeOUT, Quantity: 1})
		require.NoError(t, err)
	}

	out, err := uc.ListMovements(ctx, companyID, repository.MovementFilter{ProductID: "p1", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, out.Items, 2)
	assert.Equal(t, 3, out.Page.Total)
	assert.Equal(t, 7, out.Items[0].NewStock, "más reciente primero")

	from := time.Now().Add(time.Hour)
	to := time.Now()
	_, err = uc.ListMovements(ctx, companyID, repository.MovementFilter{From: &from, To: &to})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExportInventory(t *testing.T) {
	store := memstore.New()
	require.NoError(t, store.Products().Create(context.Background(), &entity.Product{ID: "p1", CompanyID: companyID, SKU: "A"}))
	require.NoError(t, store.Products().Create(context.Background(), &entity.Product{ID: "p2", CompanyID: "otra", SKU: "B"}))
	sheet := &memstore.Spreadsheet{}
	uc := NewRegisterMovementUseCase(store, store.Products(), store.Movements(), sheet, nil, nil)

	b, err := uc.ExportInventory(context.Background(), companyID)
	require.NoError(t, err)
	assert.NotEmpty(t, b)
	require.Len(t, sheet.Products, 1)
	assert.Equal(t, "A", sheet.Products[0].SKU)
}
