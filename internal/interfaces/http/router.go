package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	appanalytics "github.com/jhoicas/taller-api/internal/application/analytics"
	"github.com/jhoicas/taller-api/internal/application/auth"
	"github.com/jhoicas/taller-api/internal/application/inventory"
	"github.com/jhoicas/taller-api/internal/application/sales"
	"github.com/jhoicas/taller-api/internal/application/usecase"
	"github.com/jhoicas/taller-api/internal/application/workorder"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/infrastructure/metrics"
	"github.com/jhoicas/taller-api/internal/infrastructure/realtime"
	"github.com/jhoicas/taller-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC           *auth.AuthUseCase
	CompanyUC        *usecase.CompanyUseCase
	SettingsUC       *usecase.SettingsUseCase
	TenantService    *usecase.TenantService
	UserUC           *usecase.UserUseCase
	CustomerUC       *usecase.CustomerUseCase
	EmployeeUC       *usecase.EmployeeUseCase
	SupplierUC       *usecase.SupplierUseCase
	ProductUC        *usecase.ProductUseCase
	Replenishment    *inventory.ReplenishmentUseCase
	RegisterMovement *inventory.RegisterMovementUseCase
	WorkOrderUC      *workorder.UseCase
	SalesUC          *sales.UseCase
	NotificationUC   *usecase.NotificationUseCase
	DashboardUC      *appanalytics.DashboardUseCase
	BackupUC         *usecase.BackupUseCase
	Hub              *realtime.Hub
	Metrics          *metrics.Metrics // opcional
	DB               Pinger           // opcional, para /health
	Log              *logger.Logger

	JWTSecret          string
	ServiceName        string
	CORSOrigins        string
	RateLimitPerMinute int    // 0 desactiva el limitador
	UploadDir          string // vacío no sirve /uploads
	SSEKeepAlive       time.Duration
}

// Router registra middlewares globales y las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}

	app.Use(RequestLogger(log))
	if deps.Metrics != nil {
		app.Use(deps.Metrics.Middleware())
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  corsOrigins(deps.CORSOrigins),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods:  "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		ExposeHeaders: "Content-Disposition, X-Request-ID",
	}))

	app.Get("/health", Health(deps.ServiceName, deps.DB))
	if deps.UploadDir != "" {
		app.Static("/uploads", deps.UploadDir, fiber.Static{MaxAge: 3600})
	}

	api := app.Group("/api")
	if deps.RateLimitPerMinute > 0 {
		api.Use(limiter.New(limiter.Config{
			Max:        deps.RateLimitPerMinute,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return strings.HasSuffix(c.Path(), "/stream")
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"code": "RATE_LIMITED", "message": "demasiadas solicitudes, intenta más tarde",
				})
			},
		}))
	}

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup := api.Group("/auth")
	authGroup.Post("/signup", authHandler.Signup)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/password-reset/request", authHandler.RequestPasswordReset)
	authGroup.Post("/password-reset/confirm", authHandler.ResetPassword)

	// Rutas protegidas (Bearer Token y empresa activa)
	protected := api.Group("", AuthMiddleware(deps.JWTSecret), RequireActiveCompany(deps.TenantService))
	adminOnly := RequireRole(entity.RoleAdmin)
	sellers := RequireRole(entity.RoleAdmin, entity.RoleVendedor)

	protected.Get("/auth/me", authHandler.Me)
	protected.Post("/auth/password", authHandler.ChangePassword)

	companyHandler := NewCompanyHandler(deps.CompanyUC, deps.SettingsUC)
	protected.Get("/company", companyHandler.Get)
	protected.Put("/company", adminOnly, companyHandler.Update)
	protected.Post("/company/logo", adminOnly, companyHandler.UploadLogo)
	protected.Get("/settings/:key", companyHandler.GetSetting)
	protected.Put("/settings/:key", adminOnly, companyHandler.UpdateSetting)

	userHandler := NewUserHandler(deps.UserUC)
	users := protected.Group("/users", adminOnly)
	users.Get("/", userHandler.List)
	users.Post("/", userHandler.Create)
	users.Put("/:id", userHandler.Update)
	users.Delete("/:id", userHandler.Delete)

	customerHandler := NewCustomerHandler(deps.CustomerUC)
	customers := protected.Group("/customers")
	customers.Get("/", customerHandler.List)
	customers.Post("/", customerHandler.Create)
	customers.Get("/:id", customerHandler.GetByID)
	customers.Put("/:id", customerHandler.Update)
	customers.Delete("/:id", adminOnly, customerHandler.Delete)

	employeeHandler := NewEmployeeHandler(deps.EmployeeUC)
	employees := protected.Group("/employees", adminOnly)
	employees.Get("/", employeeHandler.List)
	employees.Post("/", employeeHandler.Create)
	employees.Get("/:id", employeeHandler.GetByID)
	employees.Put("/:id", employeeHandler.Update)
	employees.Delete("/:id", employeeHandler.Delete)

	supplierHandler := NewSupplierHandler(deps.SupplierUC)
	suppliers := protected.Group("/suppliers")
	suppliers.Get("/", supplierHandler.List)
	suppliers.Post("/", adminOnly, supplierHandler.Create)
	suppliers.Get("/:id", supplierHandler.GetByID)
	suppliers.Put("/:id", adminOnly, supplierHandler.Update)
	suppliers.Delete("/:id", adminOnly, supplierHandler.Delete)

	productHandler := NewProductHandler(deps.ProductUC, deps.Replenishment)
	products := protected.Group("/products")
	products.Get("/", productHandler.List)
	products.Get("/low-stock", productHandler.LowStock)
	products.Post("/", adminOnly, productHandler.Create)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", adminOnly, productHandler.Update)
	products.Delete("/:id", adminOnly, productHandler.Delete)

	inventoryHandler := NewInventoryHandler(deps.RegisterMovement)
	inv := protected.Group("/inventory")
	inv.Get("/movements", inventoryHandler.ListMovements)
	inv.Post("/movements", adminOnly, inventoryHandler.RegisterMovement)
	inv.Get("/export", adminOnly, inventoryHandler.Export)

	workOrderHandler := NewWorkOrderHandler(deps.WorkOrderUC)
	orders := protected.Group("/work-orders")
	orders.Get("/", workOrderHandler.List)
	orders.Post("/", workOrderHandler.Create)
	orders.Get("/:id", workOrderHandler.Get)
	orders.Put("/:id", workOrderHandler.Update)
	orders.Delete("/:id", adminOnly, workOrderHandler.Delete)
	orders.Patch("/:id/status", workOrderHandler.ChangeStatus)
	orders.Get("/:id/history", workOrderHandler.History)
	orders.Get("/:id/ticket", workOrderHandler.Ticket)

	saleHandler := NewSaleHandler(deps.SalesUC)
	salesGroup := protected.Group("/sales", sellers)
	salesGroup.Get("/", saleHandler.List)
	salesGroup.Post("/", saleHandler.Create)
	salesGroup.Get("/:id", saleHandler.Get)
	salesGroup.Put("/:id", saleHandler.Update)
	salesGroup.Delete("/:id", saleHandler.Cancel)
	salesGroup.Get("/:id/receipt", saleHandler.Receipt)
	salesGroup.Post("/:id/receipt/email", saleHandler.EmailReceipt)

	notificationHandler := NewNotificationHandler(deps.NotificationUC, deps.Hub, deps.SSEKeepAlive)
	notifications := protected.Group("/notifications")
	notifications.Get("/", notificationHandler.List)
	notifications.Post("/", adminOnly, notificationHandler.Create)
	notifications.Get("/stream", notificationHandler.Stream)
	notifications.Post("/read-all", notificationHandler.MarkAllRead)
	notifications.Patch("/:id/read", notificationHandler.MarkRead)

	dashboardHandler := NewDashboardHandler(deps.DashboardUC)
	protected.Get("/dashboard/summary", dashboardHandler.GetSummary)

	backupHandler := NewBackupHandler(deps.BackupUC)
	backups := protected.Group("/backups", adminOnly)
	backups.Get("/export", backupHandler.Export)
	backups.Post("/send", backupHandler.Send)
}

func corsOrigins(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "*"
	}
	return raw
}
