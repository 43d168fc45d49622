package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appanalytics "github.com/jhoicas/taller-api/internal/application/analytics"
	"github.com/jhoicas/taller-api/internal/application/auth"
	"github.com/jhoicas/taller-api/internal/application/dto"
	"github.com/jhoicas/taller-api/internal/application/inventory"
	"github.com/jhoicas/taller-api/internal/application/sales"
	"github.com/jhoicas/taller-api/internal/application/usecase"
	"github.com/jhoicas/taller-api/internal/application/workorder"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
	"github.com/jhoicas/taller-api/internal/infrastructure/metrics"
	"github.com/jhoicas/taller-api/internal/infrastructure/realtime"
	apphttp "github.com/jhoicas/taller-api/internal/interfaces/http"
	"github.com/jhoicas/taller-api/internal/testutil/memstore"
)

type noAnalytics struct{}

func (noAnalytics) SalesTotals(context.Context, string, time.Time, time.Time) (int, decimal.Decimal, error) {
	return 0, decimal.Zero, nil
}

func (noAnalytics) TopProducts(context.Context, string, time.Time, time.Time, int) ([]repository.ProductSales, error) {
	return nil, nil
}

func (noAnalytics) CountLowStock(context.Context, string) (int, error) { return 0, nil }

func (noAnalytics) WorkOrdersByStatus(context.Context, string) (map[string]int, error) {
	return map[string]int{}, nil
}

type testEnv struct {
	app   *fiber.App
	store *memstore.Store
	hub   *realtime.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memstore.New()
	cache := memstore.NewCache()
	pub := &memstore.Publisher{}
	mailer := &memstore.Mailer{}
	renderer := &memstore.Renderer{}
	sheet := &memstore.Spreadsheet{}

	settings := usecase.NewSettingsUseCase(store.Settings(), store.Companies(), cache)
	movements := inventory.NewRegisterMovementUseCase(store, store.Products(), store.Movements(), sheet, pub, nil)
	hub := realtime.NewHub(8, nil)
	t.Cleanup(hub.Close)

	deps := apphttp.RouterDeps{
		AuthUC: auth.NewAuthUseCase(store.Users(), store.Companies(), store, mailer, auth.JWTConfig{
			Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer, ResetMinutes: 30,
		}, "http://localhost:8080"),
		CompanyUC:        usecase.NewCompanyUseCase(store.Companies(), &memstore.Storage{}, settings, 1<<20),
		SettingsUC:       settings,
		TenantService:    usecase.NewTenantService(store.Companies(), cache),
		UserUC:           usecase.NewUserUseCase(store.Users()),
		CustomerUC:       usecase.NewCustomerUseCase(store.Customers()),
		EmployeeUC:       usecase.NewEmployeeUseCase(store.Employees()),
		SupplierUC:       usecase.NewSupplierUseCase(store.Suppliers()),
		ProductUC:        usecase.NewProductUseCase(store.Products(), store.Suppliers(), movements),
		Replenishment:    inventory.NewReplenishmentUseCase(store.Products(), noAnalytics{}),
		RegisterMovement: movements,
		WorkOrderUC: workorder.NewUseCase(workorder.Deps{
			Tx: store, Orders: store.WorkOrders(), Customers: store.Customers(), Employees: store.Employees(),
			Companies: store.Companies(), Branding: settings, Renderer: renderer, Publisher: pub,
		}),
		SalesUC: sales.NewUseCase(sales.Deps{
			Tx: store, Sales: store.Sales(), Customers: store.Customers(), Users: store.Users(),
			Companies: store.Companies(), Branding: settings, Renderer: renderer, Mailer: mailer, Publisher: pub,
		}),
		NotificationUC: usecase.NewNotificationUseCase(store.Notifications(), store.Users()),
		DashboardUC:    appanalytics.NewDashboardUseCase(noAnalytics{}, cache),
		BackupUC: usecase.NewBackupUseCase(usecase.BackupRepos{
			Companies: store.Companies(), Customers: store.Customers(), Employees: store.Employees(),
			Suppliers: store.Suppliers(), Products: store.Products(), WorkOrders: store.WorkOrders(), Sales: store.Sales(),
		}, sheet, mailer, settings),
		Hub:          hub,
		Metrics:      metrics.New(),
		JWTSecret:    testJWTSecret,
		ServiceName:  "taller-api",
		SSEKeepAlive: time.Hour,
	}

	app := fiber.New()
	apphttp.Router(app, deps)
	return &testEnv{app: app, store: store, hub: hub}
}

// call hace una petición JSON y decodifica la respuesta en out (si no es nil).
func (e *testEnv) call(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, out), string(raw))
	}
	return resp.StatusCode
}

func (e *testEnv) signup(t *testing.T) dto.LoginResponse {
	t.Helper()
	var out dto.LoginResponse
	code := e.call(t, http.MethodPost, "/api/auth/signup", "", dto.SignupRequest{
		CompanyName:   "Taller El Tornillo",
		CompanyTaxID:  "900123456-7",
		AdminName:     "Ana",
		AdminEmail:    "ana@tornillo.co",
		AdminPassword: "secreta123",
	}, &out)
	require.Equal(t, http.StatusCreated, code)
	require.NotEmpty(t, out.Token)
	return out
}

// userToken crea un usuario con el rol indicado y devuelve su token.
func (e *testEnv) userToken(t *testing.T, adminToken, email, role string) string {
	t.Helper()
	code := e.call(t, http.MethodPost, "/api/users", adminToken, dto.CreateUserRequest{
		Email: email, Password: "clave-segura", Name: role, Role: role,
	}, nil)
	require.Equal(t, http.StatusCreated, code)

	var out dto.LoginResponse
	code = e.call(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: email, Password: "clave-segura"}, &out)
	require.Equal(t, http.StatusOK, code)
	return out.Token
}

func TestRouter_AuthFlow(t *testing.T) {
	env := newTestEnv(t)
	session := env.signup(t)

	var me dto.SessionResponse
	assert.Equal(t, http.StatusOK, env.call(t, http.MethodGet, "/api/auth/me", session.Token, nil, &me))
	assert.Equal(t, "ana@tornillo.co", me.User.Email)

	var errBody dto.ErrorResponse
	assert.Equal(t, http.StatusUnauthorized, env.call(t, http.MethodGet, "/api/customers", "", nil, &errBody))
	assert.Equal(t, "MISSING_TOKEN", errBody.Code)

	code := env.call(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "ana@tornillo.co", Password: "incorrecta"}, &errBody)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRouter_SuspendedCompanyIsBlocked(t *testing.T) {
	env := newTestEnv(t)
	session := env.signup(t)

	company, err := env.store.Companies().GetByID(context.Background(), session.Company.ID)
	require.NoError(t, err)
	company.Status = entity.CompanyStatusSuspended
	require.NoError(t, env.store.Companies().Update(context.Background(), company))

	var errBody dto.ErrorResponse
	assert.Equal(t, http.StatusForbidden, env.call(t, http.MethodGet, "/api/customers", session.Token, nil, &errBody))
	assert.Equal(t, "COMPANY_SUSPENDED", errBody.Code)
}

func TestRouter_SaleLifecycle(t *testing.T) {
	env := newTestEnv(t)
	admin := env.signup(t).Token

	var product dto.ProductResponse
	require.Equal(t, http.StatusCreated, env.call(t, http.MethodPost, "/api/products", admin, dto.CreateProductRequest{
		SKU: "CARG-01", Name: "Cargador USB-C", Price: decimal.NewFromInt(10000), Cost: decimal.NewFromInt(6000),
		InitialStock: 5, MinStock: 1,
	}, &product))

	paid := decimal.NewFromInt(25000)
	var sale dto.SaleResponse
	require.Equal(t, http.StatusCreated, env.call(t, http.MethodPost, "/api/sales", admin, dto.CreateSaleRequest{
		PaymentMethod: entity.PaymentCash,
		Paid:          &paid,
		Items:         []dto.SaleItemRequest{{ProductID: product.ID, Quantity: 2}},
	}, &sale))
	assert.Equal(t, "V-000001", sale.Number)
	assert.True(t, decimal.NewFromInt(20000).Equal(sale.Total))
	assert.True(t, decimal.NewFromInt(5000).Equal(sale.Change))

	require.Equal(t, http.StatusOK, env.call(t, http.MethodGet, "/api/products/"+product.ID, admin, nil, &product))
	assert.Equal(t, 3, product.Stock)

	var list dto.SaleListResponse
	require.Equal(t, http.StatusOK, env.call(t, http.MethodGet, "/api/sales?status=completada", admin, nil, &list))
	assert.Len(t, list.Items, 1)

	var cancelled dto.SaleResponse
	require.Equal(t, http.StatusOK, env.call(t, http.MethodDelete, "/api/sales/"+sale.ID, admin, dto.CancelSaleRequest{Reason: "cliente desistió"}, &cancelled))
	assert.Equal(t, entity.SaleStatusCancelled, cancelled.Status)

	var errBody dto.ErrorResponse
	assert.Equal(t, http.StatusConflict, env.call(t, http.MethodDelete, "/api/sales/"+sale.ID+"?reason=otra", admin, nil, &errBody))

	require.Equal(t, http.StatusOK, env.call(t, http.MethodGet, "/api/products/"+product.ID, admin, nil, &product))
	assert.Equal(t, 5, product.Stock, "anular devuelve el stock")
}

func TestRouter_SaleWithoutStock(t *testing.T) {
	env := newTestEnv(t)
	admin := env.signup(t).Token

	var product dto.ProductResponse
	require.Equal(t, http.StatusCreated, env.call(t, http.MethodPost, "/api/products", admin, dto.CreateProductRequest{
		SKU: "FORRO-1", Name: "Forro", Price: decimal.NewFromInt(15000), InitialStock: 1,
	}, &product))

	var errBody dto.ErrorResponse
	code := env.call(t, http.MethodPost, "/api/sales", admin, dto.CreateSaleRequest{
		PaymentMethod: entity.PaymentCard,
		Items:         []dto.SaleItemRequest{{ProductID: product.ID, Quantity: 3}},
	}, &errBody)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, apphttp.CodeInsufficientStock, errBody.Code)
}

func TestRouter_WorkOrderTransitions(t *testing.T) {
	env := newTestEnv(t)
	admin := env.signup(t).Token
	tecnico := env.userToken(t, admin, "tec@tornillo.co", entity.RoleTecnico)

	var customer dto.CustomerResponse
	require.Equal(t, http.StatusCreated, env.call(t, http.MethodPost, "/api/customers", tecnico, dto.CustomerRequest{
		Name: "Carlos", Phone: "3001234567",
	}, &customer))

	var order dto.WorkOrderResponse
	require.Equal(t, http.StatusCreated, env.call(t, http.MethodPost, "/api/work-orders", tecnico, dto.CreateWorkOrderRequest{
		CustomerID: customer.ID, DeviceType: "Celular", Brand: "Samsung", ReportedIssue: "No carga",
	}, &order))
	assert.Equal(t, entity.WorkOrderPending, order.Status)

	require.Equal(t, http.StatusOK, env.call(t, http.MethodPatch, "/api/work-orders/"+order.ID+"/status", tecnico,
		dto.ChangeStatusRequest{Status: entity.WorkOrderInProgress}, &order))
	assert.Equal(t, entity.WorkOrderInProgress, order.Status)

	var errBody dto.ErrorResponse
	assert.Equal(t, http.StatusConflict, env.call(t, http.MethodPatch, "/api/work-orders/"+order.ID+"/status", tecnico,
		dto.ChangeStatusRequest{Status: entity.WorkOrderDelivered}, &errBody))
	assert.Equal(t, apphttp.CodeInvalidTransition, errBody.Code)

	var history []dto.StatusChangeResponse
	require.Equal(t, http.StatusOK, env.call(t, http.MethodGet, "/api/work-orders/"+order.ID+"/history", tecnico, nil, &history))
	assert.Len(t, history, 2)

	assert.Equal(t, http.StatusForbidden, env.call(t, http.MethodDelete, "/api/work-orders/"+order.ID, tecnico, nil, &errBody),
		"solo el admin elimina órdenes")
}

func TestRouter_RoleGates(t *testing.T) {
	env := newTestEnv(t)
	admin := env.signup(t).Token
	vendedor := env.userToken(t, admin, "ven@tornillo.co", entity.RoleVendedor)
	tecnico := env.userToken(t, admin, "tec@tornillo.co", entity.RoleTecnico)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"vendedor lista ventas", http.MethodGet, "/api/sales", vendedor, http.StatusOK},
		{"tecnico no ve ventas", http.MethodGet, "/api/sales", tecnico, http.StatusForbidden},
		{"vendedor no gestiona usuarios", http.MethodGet, "/api/users", vendedor, http.StatusForbidden},
		{"vendedor no crea productos", http.MethodPost, "/api/products", vendedor, http.StatusForbidden},
		{"vendedor no descarga respaldos", http.MethodGet, "/api/backups/export", vendedor, http.StatusForbidden},
		{"tecnico consulta productos", http.MethodGet, "/api/products", tecnico, http.StatusOK},
		{"admin ve el dashboard", http.MethodGet, "/api/dashboard/summary", admin, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, env.call(t, tt.method, tt.path, tt.token, nil, nil))
		})
	}
}

func TestRouter_InvalidInput(t *testing.T) {
	env := newTestEnv(t)
	admin := env.signup(t).Token

	req := httptest.NewRequest(http.MethodPost, "/api/sales", strings.NewReader("{no es json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+admin)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	var errBody dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errBody))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apphttp.CodeInvalidBody, errBody.Code)

	assert.Equal(t, http.StatusBadRequest, env.call(t, http.MethodPut, "/api/settings/desconocida", admin, map[string]any{"x": 1}, &errBody))
	assert.Equal(t, apphttp.CodeValidation, errBody.Code)

	assert.Equal(t, http.StatusBadRequest, env.call(t, http.MethodGet, "/api/sales?from=ayer", admin, nil, &errBody))

	assert.Equal(t, http.StatusNotFound, env.call(t, http.MethodGet, "/api/customers/no-existe", admin, nil, &errBody))
	assert.Equal(t, apphttp.CodeNotFound, errBody.Code)
}

func TestRouter_Notifications(t *testing.T) {
	env := newTestEnv(t)
	admin := env.signup(t).Token

	var created dto.NotificationResponse
	require.Equal(t, http.StatusCreated, env.call(t, http.MethodPost, "/api/notifications", admin, dto.CreateNotificationRequest{
		Type: entity.NotificationInfo, Title: "Inventario mensual", Message: "El viernes se cuenta el stock",
	}, &created))

	var list dto.NotificationListResponse
	require.Equal(t, http.StatusOK, env.call(t, http.MethodGet, "/api/notifications?unread=true", admin, nil, &list))
	require.Len(t, list.Items, 1)

	assert.Equal(t, http.StatusNoContent, env.call(t, http.MethodPatch, "/api/notifications/"+created.ID+"/read", admin, nil, nil))

	require.Equal(t, http.StatusOK, env.call(t, http.MethodGet, "/api/notifications?unread=true", admin, nil, &list))
	assert.Empty(t, list.Items)
}

func TestRouter_NotificationStream(t *testing.T) {
	env := newTestEnv(t)
	session := env.signup(t)

	go func() {
		deadline := time.Now().Add(2 * time.Second)
		for env.hub.Count(session.Company.ID) == 0 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		env.hub.Broadcast(entity.Notification{
			ID: "n-1", CompanyID: session.Company.ID, Type: entity.NotificationSuccess,
			Title: "Venta V-000001", CreatedAt: time.Now(),
		})
		env.hub.Close()
	}()

	req := httptest.NewRequest(http.MethodGet, "/api/notifications/stream?access_token="+session.Token, nil)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "event: ready")
	assert.Contains(t, string(body), "event: notification")
	assert.Contains(t, string(body), `"title":"Venta V-000001"`)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	var health map[string]string
	assert.Equal(t, http.StatusOK, env.call(t, http.MethodGet, "/health", "", nil, &health))
	assert.Equal(t, "ok", health["status"])

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "taller_http_requests_total")
}
