package workorder

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-api/internal/application/dto"
	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
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

func newUseCase(t *testing.T) (*UseCase, *memstore.Store, *memstore.Publisher) {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.Companies().Create(ctx, &entity.Company{ID: companyID, Name: "Taller La 14", TaxID: "900"}))
	require.NoError(t, store.Customers().Create(ctx, &entity.Customer{ID: "cus1", CompanyID: companyID, Name: "Carlos", Phone: "300 123 4567"}))
	require.NoError(t, store.Employees().Create(ctx, &entity.Employee{ID: "tec1", CompanyID: companyID, Name: "Tomás", Status: entity.EmployeeStatusActive}))
	require.NoError(t, store.Employees().Create(ctx, &entity.Employee{ID: "tec2", CompanyID: companyID, Name: "Retirado", Status: entity.EmployeeStatusInactive}))
	pub := &memstore.Publisher{}
	uc := NewUseCase(Deps{
		Tx:        store,
		Orders:    store.WorkOrders(),
		Customers: store.Customers(),
		Employees: store.Employees(),
		Companies: store.Companies(),
		Branding:  fixedBranding{},
		Renderer:  &memstore.Renderer{},
		Publisher: pub,
	})
	return uc, store, pub
}

func createRequest() dto.CreateWorkOrderRequest {
	tec := "tec1"
	return dto.CreateWorkOrderRequest{
		CustomerID:     "cus1",
		TechnicianID:   &tec,
		DeviceType:     "Celular",
		Brand:          "Samsung",
		Model:          "A54",
		ReportedIssue:  "No carga",
		EstimatedCost:  decimal.NewFromInt(120000),
		AdvancePayment: decimal.NewFromInt(20000),
	}
}

func TestCreate_AsignaConsecutivoYQuedaPendiente(t *testing.T) {
	uc, _, pub := newUseCase(t)
	ctx := context.Background()

	first, err := uc.Create(ctx, companyID, userID, createRequest())
	require.NoError(t, err)
	assert.Equal(t, "OT-000001", first.Number)
	assert.Equal(t, entity.WorkOrderPending, first.Status)
	assert.Equal(t, entity.WorkOrderInProgress, first.NextStatus)
	assert.True(t, decimal.NewFromInt(100000).Equal(first.Balance))

	second, err := uc.Create(ctx, companyID, userID, createRequest())
	require.NoError(t, err)
	assert.Equal(t, "OT-000002", second.Number)

	ev, ok := pub.Last(entity.EventWorkOrderCreated)
	require.True(t, ok)
	assert.Equal(t, "Celular Samsung A54", ev.Data["device"])
	assert.Equal(t, "Carlos", ev.Data["customer_name"])
}

func TestCreate_Validaciones(t *testing.T) {
	uc, _, _ := newUseCase(t)
	ctx := context.Background()

	in := createRequest()
	in.CustomerID = "nadie"
	_, err := uc.Create(ctx, companyID, userID, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in = createRequest()
	inactive := "tec2"
	in.TechnicianID = &inactive
	_, err = uc.Create(ctx, companyID, userID, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in = createRequest()
	in.ReportedIssue = "  "
	_, err = uc.Create(ctx, companyID, userID, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestChangeStatus_RecorridoCompleto(t *testing.T) {
	uc, _, pub := newUseCase(t)
	ctx := context.Background()
	order, err := uc.Create(ctx, companyID, userID, createRequest())
	require.NoError(t, err)

	_, err = uc.ChangeStatus(ctx, companyID, userID, order.ID, dto.ChangeStatusRequest{Status: entity.WorkOrderFinished})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "no se puede saltar en_proceso")

	for _, st := range []string{entity.WorkOrderInProgress, entity.WorkOrderFinished, entity.WorkOrderDelivered} {
		out, err := uc.ChangeStatus(ctx, companyID, userID, order.ID, dto.ChangeStatusRequest{Status: st, Note: "avance"})
		require.NoError(t, err, st)
		assert.Equal(t, st, out.Status)
	}

	got, err := uc.Get(ctx, companyID, order.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DeliveredAt)
	assert.Empty(t, got.NextStatus)

	_, err = uc.ChangeStatus(ctx, companyID, userID, order.ID, dto.ChangeStatusRequest{Status: entity.WorkOrderPending})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	history, err := uc.History(ctx, companyID, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, "", history[0].FromStatus)
	assert.Equal(t, entity.WorkOrderFinished, history[3].FromStatus)
	assert.Equal(t, entity.WorkOrderDelivered, history[3].ToStatus)

	ev, ok := pub.Last(entity.EventWorkOrderStatusChanged)
	require.True(t, ok)
	assert.Equal(t, entity.WorkOrderFinished, ev.Data["from"])
	assert.Equal(t, entity.WorkOrderDelivered, ev.Data["to"])
	assert.Equal(t, "300 123 4567", ev.Data["customer_phone"])
}

func TestUpdateYDelete(t *testing.T) {
	uc, _, _ := newUseCase(t)
	ctx := context.Background()
	order, err := uc.Create(ctx, companyID, userID, createRequest())
	require.NoError(t, err)

	diag := "Puerto de carga dañado"
	final := decimal.NewFromInt(150000)
	out, err := uc.Update(ctx, companyID, order.ID, dto.UpdateWorkOrderRequest{Diagnosis: &diag, FinalCost: &final})
	require.NoError(t, err)
	assert.Equal(t, diag, out.Diagnosis)
	assert.True(t, decimal.NewFromInt(130000).Equal(out.Balance))
	assert.Equal(t, entity.WorkOrderPending, out.Status)

	_, err = uc.ChangeStatus(ctx, companyID, userID, order.ID, dto.ChangeStatusRequest{Status: entity.WorkOrderInProgress})
	require.NoError(t, err)
	assert.ErrorIs(t, uc.Delete(ctx, companyID, order.ID), domain.ErrConflict)

	other, err := uc.Create(ctx, companyID, userID, createRequest())
	require.NoError(t, err)
	require.NoError(t, uc.Delete(ctx, companyID, other.ID))
	_, err = uc.Get(ctx, companyID, other.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestList_FiltraPorEstado(t *testing.T) {
	uc, _, _ := newUseCase(t)
	ctx := context.Background()
	a, err := uc.Create(ctx, companyID, userID, createRequest())
	require.NoError(t, err)
	_, err = uc.Create(ctx, companyID, userID, createRequest())
	require.NoError(t, err)
	_, err = uc.ChangeStatus(ctx, companyID, userID, a.ID, dto.ChangeStatusRequest{Status: entity.WorkOrderInProgress})
	require.NoError(t, err)

	out, err := uc.List(ctx, companyID, repository.WorkOrderFilter{Status: entity.WorkOrderInProgress})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, a.ID, out.Items[0].ID)
	assert.Equal(t, 20, out.Page.Limit)

	_, err = uc.List(ctx, companyID, repository.WorkOrderFilter{Status: "perdida"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTicket(t *testing.T) {
	uc, _, _ := newUseCase(t)
	ctx := context.Background()
	order, err := uc.Create(ctx, companyID, userID, createRequest())
	require.NoError(t, err)

	pdf, name, err := uc.Ticket(ctx, companyID, order.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
	assert.Equal(t, "OT-000001.pdf", name)

	r := uc.Renderer.(*memstore.Renderer)
	require.NotNil(t, r.Ticket.Technician)
	assert.Equal(t, "Tomás", r.Ticket.Technician.Name)
	assert.Equal(t, "Taller La 14", r.Ticket.Branding.BusinessName)
}
