package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/sync/errgroup"

	_ "github.com/jhoicas/taller-api/docs"
	appanalytics "github.com/jhoicas/taller-api/internal/application/analytics"
	"github.com/jhoicas/taller-api/internal/application/auth"
	"github.com/jhoicas/taller-api/internal/application/inventory"
	"github.com/jhoicas/taller-api/internal/application/notify"
	"github.com/jhoicas/taller-api/internal/application/ports"
	"github.com/jhoicas/taller-api/internal/application/sales"
	"github.com/jhoicas/taller-api/internal/application/usecase"
	"github.com/jhoicas/taller-api/internal/application/workorder"
	"github.com/jhoicas/taller-api/internal/infrastructure/cache"
	"github.com/jhoicas/taller-api/internal/infrastructure/events"
	"github.com/jhoicas/taller-api/internal/infrastructure/mail"
	"github.com/jhoicas/taller-api/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/taller-api/internal/infrastructure/pdf"
	"github.com/jhoicas/taller-api/internal/infrastructure/postgres"
	"github.com/jhoicas/taller-api/internal/infrastructure/realtime"
	"github.com/jhoicas/taller-api/internal/infrastructure/storage"
	"github.com/jhoicas/taller-api/internal/infrastructure/whatsapp"
	"github.com/jhoicas/taller-api/internal/infrastructure/xlsx"
	httpRouter "github.com/jhoicas/taller-api/internal/interfaces/http"
	"github.com/jhoicas/taller-api/pkg/config"
	"github.com/jhoicas/taller-api/pkg/logger"
	"github.com/jhoicas/taller-api/pkg/telemetry"
)

// @title                       Taller API
// @version                     1.0
// @description                 Backend multiempresa para talleres de reparación y tiendas: órdenes de trabajo, ventas, inventario y notificaciones.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	if err := cfg.Validate(); err != nil {
		panic(err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("telemetría")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn().Err(err).Msg("cerrar telemetría")
		}
	}()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	appCache, closeCache, err := cache.New(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a Redis")
	}
	defer closeCache()

	// Repositorios
	companyRepo := postgres.NewCompanyRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	employeeRepo := postgres.NewEmployeeRepository(pool)
	supplierRepo := postgres.NewSupplierRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	movementRepo := postgres.NewInventoryMovementRepository(pool)
	workOrderRepo := postgres.NewWorkOrderRepository(pool)
	saleRepo := postgres.NewSaleRepository(pool)
	notificationRepo := postgres.NewNotificationRepository(pool)
	settingRepo := postgres.NewSettingRepository(pool)
	analyticsRepo := postgres.NewAnalyticsRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Adaptadores
	mailer := mail.New(cfg.SMTP, log)
	files := storage.NewLocalStorage(cfg.Storage.UploadDir, cfg.HTTP.PublicBaseURL)
	renderer := infrapdf.NewRenderer()
	exporter := xlsx.NewExporter()
	waClient := whatsapp.NewClient(cfg.WhatsApp.APIURL)
	m := metrics.New()

	// Bus de eventos: Kafka si hay brokers, si no en memoria.
	var (
		publisher ports.EventPublisher
		runEvents func(context.Context, ports.EventHandler) error
	)
	if cfg.Kafka.Enabled() {
		kp := events.NewKafkaPublisher(cfg.Kafka, log)
		defer kp.Close()
		kc := events.NewKafkaConsumer(cfg.Kafka, log)
		defer kc.Close()
		publisher, runEvents = kp, kc.Run
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("eventos vía Kafka")
	} else {
		bus := events.NewLocalBus(0, log)
		publisher, runEvents = bus, bus.Run
	}

	// Casos de uso
	settingsUC := usecase.NewSettingsUseCase(settingRepo, companyRepo, appCache)
	tenantSvc := usecase.NewTenantService(companyRepo, appCache)
	companyUC := usecase.NewCompanyUseCase(companyRepo, files, settingsUC, int64(cfg.Storage.MaxBytes))
	authUC := auth.NewAuthUseCase(userRepo, companyRepo, txRunner, mailer, auth.JWTConfig{
		Secret:       cfg.JWT.Secret,
		ExpMinutes:   cfg.JWT.Expiration,
		Issuer:       cfg.JWT.Issuer,
		ResetMinutes: cfg.JWT.ResetMinutes,
	}, cfg.HTTP.PublicBaseURL)
	registerMovementUC := inventory.NewRegisterMovementUseCase(txRunner, productRepo, movementRepo, exporter, publisher, log)
	replenishmentUC := inventory.NewReplenishmentUseCase(productRepo, analyticsRepo)
	productUC := usecase.NewProductUseCase(productRepo, supplierRepo, registerMovementUC)
	workOrderUC := workorder.NewUseCase(workorder.Deps{
		Tx:        txRunner,
		Orders:    workOrderRepo,
		Customers: customerRepo,
		Employees: employeeRepo,
		Companies: companyRepo,
		Branding:  settingsUC,
		Renderer:  renderer,
		Publisher: publisher,
		Log:       log,
	})
	salesUC := sales.NewUseCase(sales.Deps{
		Tx:        txRunner,
		Sales:     saleRepo,
		Customers: customerRepo,
		Users:     userRepo,
		Companies: companyRepo,
		Branding:  settingsUC,
		Renderer:  renderer,
		Mailer:    mailer,
		Publisher: publisher,
		Log:       log,
	})
	dashboardUC := appanalytics.NewDashboardUseCase(analyticsRepo, appCache)
	backupUC := usecase.NewBackupUseCase(usecase.BackupRepos{
		Companies:  companyRepo,
		Customers:  customerRepo,
		Employees:  employeeRepo,
		Suppliers:  supplierRepo,
		Products:   productRepo,
		WorkOrders: workOrderRepo,
		Sales:      saleRepo,
	}, exporter, mailer, settingsUC)

	dispatcher := notify.NewDispatcher(notificationRepo, settingsUC, waClient, dashboardUC, log)
	onEvent := events.Fanout(log, events.Retry(dispatcher.Handle, 3, 500*time.Millisecond), m.EventHandler())

	hub := realtime.NewHub(32, log)
	listener := postgres.NewNotificationListener(pool, log)

	app := fiber.New(fiber.Config{
		AppName:     cfg.App.Name,
		ReadTimeout: time.Second * 10,
		// Sin WriteTimeout: el stream SSE mantiene la respuesta abierta.
		IdleTimeout: time.Second * 60,
		BodyLimit:   cfg.Storage.MaxBytes + 1<<20,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Taller API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:             authUC,
		CompanyUC:          companyUC,
		SettingsUC:         settingsUC,
		TenantService:      tenantSvc,
		UserUC:             usecase.NewUserUseCase(userRepo),
		CustomerUC:         usecase.NewCustomerUseCase(customerRepo),
		EmployeeUC:         usecase.NewEmployeeUseCase(employeeRepo),
		SupplierUC:         usecase.NewSupplierUseCase(supplierRepo),
		ProductUC:          productUC,
		Replenishment:      replenishmentUC,
		RegisterMovement:   registerMovementUC,
		WorkOrderUC:        workOrderUC,
		SalesUC:            salesUC,
		NotificationUC:     usecase.NewNotificationUseCase(notificationRepo, userRepo),
		DashboardUC:        dashboardUC,
		BackupUC:           backupUC,
		Hub:                hub,
		Metrics:            m,
		DB:                 pool,
		Log:                log,
		JWTSecret:          cfg.JWT.Secret,
		ServiceName:        cfg.App.Name,
		CORSOrigins:        cfg.HTTP.CORSOrigins,
		RateLimitPerMinute: cfg.HTTP.RateLimitPerMinute,
		UploadDir:          files.Root(),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTP.Addr()).Msg("servidor HTTP escuchando")
		return app.Listen(cfg.HTTP.Addr())
	})
	g.Go(func() error { return runEvents(gctx, onEvent) })
	g.Go(func() error { return listener.Run(gctx, hub.Broadcast) })
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")
		// Cerrar el hub termina los streams SSE abiertos; si no, Shutdown los esperaría.
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("aplicación finalizada con error")
	}
	log.Info().Msg("aplicación detenida")
}
