package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"lojistik-backend/internal/audit"
	"lojistik-backend/internal/auth"
	"lojistik-backend/internal/catalog"
	"lojistik-backend/internal/config"
	"lojistik-backend/internal/database"
	"lojistik-backend/internal/events"
	"lojistik-backend/internal/health"
	"lojistik-backend/internal/importer"
	"lojistik-backend/internal/logger"
	"lojistik-backend/internal/models"
	"lojistik-backend/internal/orders"
	"lojistik-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	database.Init(cfg)

	st := store.New(database.DB)
	deps := importer.Deps{
		Catalog: st,
		Orders:  st,
		Jobs:    st,
		Auditor: audit.NewImportRecorder(database.DB),
		MaxRows: cfg.ImportMaxRows,
	}

	// NATS opsiyonel: bağlantı yoksa içe aktarım eventsiz çalışır
	var publisher *events.NATSPublisher
	if cfg.NATSURL != "" {
		p, err := events.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix)
		if err != nil {
			logger.Log.WithError(err).Warn("NATS devre dışı")
		} else {
			publisher = p
			deps.Publisher = p
			logger.Log.WithField("subject", events.Subject(cfg.NATSSubjectPrefix)).Info("İçe aktarım eventleri NATS'e yayınlanacak")
		}
	}
	importService := importer.NewService(deps)

	app := fiber.New(fiber.Config{
		// multipart başlıkları için 1 MB pay
		BodyLimit: int(cfg.ImportMaxFileBytes) + 1024*1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			logger.Log.WithError(err).WithField("path", c.Path()).Error("Beklenmeyen hata")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	var eventsConn health.ConnChecker
	if publisher != nil {
		eventsConn = publisher
	}
	api.Get("/health", health.Handler(database.Ping, eventsConn))

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler())
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Sipariş içe aktarım (admin + operatör)
	protected.Post("/orders/import", orders.ImportOrdersHandler(importService, cfg))
	protected.Get("/orders", orders.ListOrdersHandler())
	protected.Get("/orders/:id", orders.GetOrderHandler())
	protected.Patch("/orders/:id/status", orders.UpdateOrderStatusHandler())
	protected.Get("/import-jobs", orders.ListImportJobsHandler())
	protected.Get("/import-jobs/:id", orders.GetImportJobHandler())

	// Katalog okuma
	protected.Get("/customers", catalog.ListCustomersHandler())
	protected.Get("/customers/:id", catalog.GetCustomerHandler())
	protected.Get("/customers/:id/branches", catalog.ListBranchesHandler())
	protected.Get("/products", catalog.ListProductsHandler())

	// Admin routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	adminRoutes.Post("/users", auth.CreateUserHandler())

	adminRoutes.Post("/customers", catalog.CreateCustomerHandler())
	adminRoutes.Put("/customers/:id", catalog.UpdateCustomerHandler())
	adminRoutes.Delete("/customers/:id", catalog.DeleteCustomerHandler())
	adminRoutes.Post("/customers/:id/branches", catalog.CreateBranchHandler())
	adminRoutes.Put("/branches/:id", catalog.UpdateBranchHandler())
	adminRoutes.Delete("/branches/:id", catalog.DeleteBranchHandler())

	adminRoutes.Post("/products", catalog.CreateProductHandler())
	adminRoutes.Post("/products/import", catalog.ImportProductsHandler(cfg.ImportMaxRows))
	adminRoutes.Put("/products/:id", catalog.UpdateProductHandler())
	adminRoutes.Delete("/products/:id", catalog.DeleteProductHandler())

	adminRoutes.Delete("/import-batches/:batchId", orders.RollbackBatchHandler(st, audit.WriteLog))

	// Audit log
	adminRoutes.Get("/audit-logs", audit.ListAuditLogsHandler())
	adminRoutes.Post("/audit-logs/:id/undo", audit.UndoAuditLogHandler())

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Log.Info("Sunucu kapatılıyor")
		if publisher != nil {
			publisher.Close()
		}
		if err := app.Shutdown(); err != nil {
			logger.Log.WithError(err).Error("Sunucu düzgün kapatılamadı")
		}
	}()

	logger.Log.WithField("port", cfg.HTTPPort).Info("Sunucu başlatılıyor")
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		logger.Log.Fatalf("Sunucu başlatılamadı: %v", err)
	}
}
