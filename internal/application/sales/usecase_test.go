package sales

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-api/internal/application/dto"
	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/testutil/memstore"
)

const (
	companyID = "c1"
	userID    = "u1"
)

type fixedBranding struct{}

func (fixedBranding) Branding(context.Context, string) (entity.BrandingSettings, error) {
	return entity.DefaultBranding("Taller La 14"), nil
}

type fixture struct {
	uc        *UseCase
	store     *memstore.Store
	publisher *memstore.Publisher
	mailer    *memstore.Mailer
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	now := time.Now()
	require.NoError(t, store.Companies().Create(ctx, &entity.Company{ID: companyID, Name: "Taller La 14", TaxID: "900", Status: entity.CompanyStatusActive}))
	require.NoError(t, store.Users().Create(ctx, &entity.User{ID: userID, CompanyID: companyID, Email: "v@t.co", Name: "Vera", Role: entity.RoleVendedor}))
	require.NoError(t, store.Customers().Create(ctx, &entity.Customer{ID: "cus1", CompanyID: companyID, Name: "Carlos", Email: "carlos@correo.co"}))
	require.NoError(t, store.Customers().Create(ctx, &entity.Customer{ID: "cus2", CompanyID: companyID, Name: "Sin correo"}))
	for _, p := range []entity.Product{
		{ID: "p1", CompanyID: companyID, SKU: "CARG-01", Name: "Cargador", Price: d("1000"), Cost: d("600"), Stock: 10, MinStock: 2, Active: true, CreatedAt: now},
		{ID: "p2", CompanyID: companyID, SKU: "PANT-01", Name: "Pantalla", Price: d("500"), Cost: d("300"), Stock: 1, MinStock: 0, Active: true, CreatedAt: now},
		{ID: "p3", CompanyID: companyID, SKU: "VIEJO-01", Name: "Descontinuado", Price: d("10"), Stock: 5, Active: false, CreatedAt: now},
	} {
		p := p
		require.NoError(t, store.Products().Create(ctx, &p))
	}
	pub := &memstore.Publisher{}
	mailer := &memstore.Mailer{}
	uc := NewUseCase(Deps{
		Tx:        store,
		Sales:     store.Sales(),
		Customers: store.Customers(),
		Users:     store.Users(),
		Companies: store.Companies(),
		Branding:  fixedBranding{},
		Renderer:  &memstore.Renderer{},
		Mailer:    mailer,
		Publisher: pub,
	})
	return &fixture{uc: uc, store: store, publisher: pub, mailer: mailer}
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.store.Products().GetByID(context.Background(), companyID, id)
	require.NoError(t, err)
	return p.Stock
}

func item(id string, qty int) dto.SaleItemRequest {
	return dto.SaleItemRequest{ProductID: id, Quantity: qty}
}

func TestCreate_DescuentaStockYNumera(t *testing.T) {
	f := newFixture(t)
	paid := d("3000")
	cus := "cus1"

	out, err := f.uc.Create(context.Background(), companyID, userID, dto.CreateSaleRequest{
		CustomerID:    &cus,
		PaymentMethod: entity.PaymentCash,
		Discount:      d("100"),
		Paid:          &paid,
		Items:         []dto.SaleItemRequest{item("p1", 2), item("p2", 1)},
	})
	require.NoError(t, err)

	assert.Equal(t, "V-000001", out.Number)
	assert.True(t, d("2500").Equal(out.Subtotal))
	assert.True(t, d("2400").Equal(out.Total))
	assert.True(t, d("600").Equal(out.Change))
	assert.Equal(t, entity.SaleStatusCompleted, out.Status)
	assert.Len(t, out.Items, 2)

	assert.Equal(t, 8, f.stock(t, "p1"))
	assert.Equal(t, 0, f.stock(t, "p2"))

	movs := f.store.MovementsOf("p1")
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementTypeSale, movs[0].Type)
	assert.Equal(t, -2, movs[0].Quantity)
	assert.Equal(t, 10, movs[0].PreviousStock)
	assert.Equal(t, 8, movs[0].NewStock)
	assert.Equal(t, out.ID, movs[0].ReferenceID)

	assert.Contains(t, f.publisher.Types(), entity.EventSaleCreated)

	second, err := f.uc.Create(context.Background(), companyID, userID, dto.CreateSaleRequest{
		PaymentMethod: entity.PaymentCard,
		Items:         []dto.SaleItemRequest{item("p1", 1)},
	})
	require.NoError(t, err)
	assert.Equal(t, "V-000002", second.Number)
	assert.True(t, second.Paid.Equal(second.Total), "sin paid se asume pago exacto")
}

func TestCreate_StockInsuficienteNoDejaNada(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Create(context.Background(), companyID, userID, dto.CreateSaleRequest{
		PaymentMethod: entity.PaymentCash,
		Items:         []dto.SaleItemRequest{item("p1", 3), item("p2", 2)},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, 10, f.stock(t, "p1"))
	assert.Equal(t, 1, f.stock(t, "p2"))
	assert.Empty(t, f.store.MovementsOf("p1"))
	assert.Empty(t, f.publisher.Types())

	out, err := f.uc.Create(context.Background(), companyID, userID, dto.CreateSaleRequest{
		PaymentMethod: entity.PaymentCash,
		Items:         []dto.SaleItemRequest{item("p1", 1)},
	})
	require.NoError(t, err)
	assert.Equal(t, "V-000001", out.Number, "el consecutivo se revierte con la transacción")
}

func TestCreate_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	poco := d("10")
	fantasma := "no-existe"

	cases := map[string]dto.CreateSaleRequest{
		"medio de pago":       {PaymentMethod: "bitcoin", Items: []dto.SaleItemRequest{item("p1", 1)}},
		"sin líneas":          {PaymentMethod: entity.PaymentCash},
		"cantidad cero":       {PaymentMethod: entity.PaymentCash, Items: []dto.SaleItemRequest{item("p1", 0)}},
		"descuento excesivo":  {PaymentMethod: entity.PaymentCash, Discount: d("5000"), Items: []dto.SaleItemRequest{item("p1", 1)}},
		"pago insuficiente":   {PaymentMethod: entity.PaymentCash, Paid: &poco, Items: []dto.SaleItemRequest{item("p1", 1)}},
		"producto inactivo":   {PaymentMethod: entity.PaymentCash, Items: []dto.SaleItemRequest{item("p3", 1)}},
		"cliente inexistente": {PaymentMethod: entity.PaymentCash, CustomerID: &fantasma, Items: []dto.SaleItemRequest{item("p1", 1)}},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.uc.Create(ctx, companyID, userID, in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	_, err := f.uc.Create(ctx, companyID, userID, dto.CreateSaleRequest{
		PaymentMethod: entity.PaymentCash,
		Items:         []dto.SaleItemRequest{item("otro", 1)},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 10, f.stock(t, "p1"))
}

func TestUpdate_ConciliaPorDiferencia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sale, err := f.uc.Create(ctx, companyID, userID, dto.CreateSaleRequest{
		PaymentMethod: entity.PaymentCash,
		Items:         []dto.SaleItemRequest{item("p1", 2), item("p2", 1)},
	})
	require.NoError(t, err)

	out, err := f.uc.Update(ctx, companyID, userID, sale.ID, dto.UpdateSaleRequest{
		PaymentMethod: entity.PaymentTransfer,
		Items:         []dto.SaleItemRequest{item("p1", 5)},
	})
	require.NoError(t, err)
	assert.True(t, d("5000").Equal(out.Total))
	assert.Equal(t, entity.PaymentTransfer, out.PaymentMethod)
	assert.Equal(t, sale.Number, out.Number)

	assert.Equal(t, 5, f.stock(t, "p1"))
	assert.Equal(t, 1, f.stock(t, "p2"))

	p1 := f.store.MovementsOf("p1")
	require.Len(t, p1, 2)
	assert.Equal(t, entity.MovementTypeSale, p1[1].Type)
	assert.Equal(t, -3, p1[1].Quantity)

	p2 := f.store.MovementsOf("p2")
	require.Len(t, p2, 2)
	assert.Equal(t, entity.MovementTypeSaleReturn, p2[1].Type)
	assert.Equal(t, 1, p2[1].Quantity)
}

func TestUpdate_SinStockRevierteTodo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sale, err := f.uc.Create(ctx, companyID, userID, dto.CreateSaleRequest{
		PaymentMethod: entity.PaymentCash,
		Items:         []dto.SaleItemRequest{item("p1", 2), item("p2", 1)},
	})
	require.NoError(t, err)

	_, err = f.uc.Update(ctx, companyID, userID, sale.ID, dto.UpdateSaleRequest{
		PaymentMethod: entity.PaymentCash,
		Items:         []dto.SaleItemRequest{item("p1", 20)},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, 8, f.stock(t, "p1"))
	assert.Equal(t, 0, f.stock(t, "p2"), "la devolución de p2 también se revierte")
	got, err := f.uc.Get(ctx, companyID, sale.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
}

func TestCancel_DevuelveStockUnaSolaVez(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sale, err := f.uc.Create(ctx, companyID, userID, dto.CreateSaleRequest{
		PaymentMethod: entity.PaymentCash,
		Items:         []dto.SaleItemRequest{item("p1", 4)},
	})
	require.NoError(t, err)

	out, err := f.uc.Cancel(ctx, companyID, userID, sale.ID, dto.CancelSaleRequest{Reason: "cliente desistió"})
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusCancelled, out.Status)
	assert.Equal(t, "cliente desistió", out.CancelReason)
	require.NotNil(t, out.CancelledAt)
	assert.Equal(t, 10, f.stock(t, "p1"))

	_, err = f.uc.Cancel(ctx, companyID, userID, sale.ID, dto.CancelSaleRequest{})
	assert.ErrorIs(t, err, domain.ErrSaleCancelled)
	assert.Equal(t, 10, f.stock(t, "p1"))

	_, err = f.uc.Update(ctx, companyID, userID, sale.ID, dto.UpdateSaleRequest{
		PaymentMethod: entity.PaymentCash,
		Items:         []dto.SaleItemRequest{item("p1", 1)},
	})
	assert.ErrorIs(t, err, domain.ErrSaleCancelled)
	assert.Contains(t, f.publisher.Types(), entity.EventSaleCancelled)
}

func TestCreate_EmiteStockBajoAlCruzarUmbral(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Create(ctx, companyID, userID, dto.CreateSaleRequest{
		PaymentMethod: entity.PaymentCash,
		Items:         []dto.SaleItemRequest{item("p1", 7)},
	})
	require.NoError(t, err)
	_, found := f.publisher.Last(entity.EventProductLowStock)
	assert.False(t, found, "10 → 3 sigue sobre el mínimo 2")

	_, err = f.uc.Create(ctx, companyID, userID, dto.CreateSaleRequest{
		PaymentMethod: entity.PaymentCash,
		Items:         []dto.SaleItemRequest{item("p1", 1)},
	})
	require.NoError(t, err)
	ev, found := f.publisher.Last(entity.EventProductLowStock)
	require.True(t, found)
	assert.Equal(t, "p1", ev.EntityID)
	assert.Equal(t, "2", ev.Data["stock"])
}

func TestCreate_ConcurrenciaNoSobrevende(t *testing.T) {
	f := newFixture(t)
	var (
		wg sync.WaitGroup
		ok atomic.Int32
	)
	for i := 0; i < 15; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.Create(context.Background(), companyID, userID, dto.CreateSaleRequest{
				PaymentMethod: entity.PaymentCash,
				Items:         []dto.SaleItemRequest{item("p1", 1)},
			})
			if err == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 10, ok.Load())
	assert.Equal(t, 0, f.stock(t, "p1"))
}

func TestEmailReceipt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cus1, cus2 := "cus1", "cus2"

	conCorreo, err := f.uc.Create(ctx, companyID, userID, dto.CreateSaleRequest{CustomerID: &cus1, PaymentMethod: entity.PaymentCash, Items: []dto.SaleItemRequest{item("p1", 1)}})
	require.NoError(t, err)
	sinCorreo, err := f.uc.Create(ctx, companyID, userID, dto.CreateSaleRequest{CustomerID: &cus2, PaymentMethod: entity.PaymentCash, Items: []dto.SaleItemRequest{item("p1", 1)}})
	require.NoError(t, err)

	require.NoError(t, f.uc.EmailReceipt(ctx, companyID, conCorreo.ID, ""))
	require.Len(t, f.mailer.Sent, 1)
	assert.Equal(t, []string{"carlos@correo.co"}, f.mailer.Sent[0].To)
	require.Len(t, f.mailer.Sent[0].Attachments, 1)
	assert.Equal(t, conCorreo.Number+".pdf", f.mailer.Sent[0].Attachments[0].Filename)

	assert.ErrorIs(t, f.uc.EmailReceipt(ctx, companyID, sinCorreo.ID, ""), domain.ErrInvalidInput)
	require.NoError(t, f.uc.EmailReceipt(ctx, companyID, sinCorreo.ID, "otro@correo.co"))

	f.uc.Mailer = nil
	assert.ErrorIs(t, f.uc.EmailReceipt(ctx, companyID, conCorreo.ID, ""), domain.ErrNotConfigured)
}

func TestReceipt_IncluyeVendedorYCliente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cus := "cus1"
	sale, err := f.uc.Create(ctx, companyID, userID, dto.CreateSaleRequest{CustomerID: &cus, PaymentMethod: entity.PaymentCash, Items: []dto.SaleItemRequest{item("p1", 1)}})
	require.NoError(t, err)

	pdf, name, err := f.uc.Receipt(ctx, companyID, sale.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
	assert.Equal(t, "V-000001.pdf", name)

	r := f.uc.Renderer.(*memstore.Renderer)
	assert.Equal(t, "Vera", r.Receipt.Seller)
	require.NotNil(t, r.Receipt.Customer)
	assert.Equal(t, "Carlos", r.Receipt.Customer.Name)

	_, _, err = f.uc.Receipt(ctx, "otra-empresa", sale.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
