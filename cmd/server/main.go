package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/backoffice/backend/internal/application/fulfillment"
	"github.com/backoffice/backend/internal/domain/order"
	"github.com/backoffice/backend/internal/domain/shared/valueobject"
	"github.com/backoffice/backend/internal/infrastructure/config"
	"github.com/backoffice/backend/internal/infrastructure/delivery"
	"github.com/backoffice/backend/internal/infrastructure/event"
	"github.com/backoffice/backend/internal/infrastructure/logger"
	"github.com/backoffice/backend/internal/infrastructure/persistence"
	"github.com/backoffice/backend/internal/interfaces/http/handler"
	"github.com/backoffice/backend/internal/interfaces/http/middleware"
	"github.com/backoffice/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting fulfillment backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	applyBusinessPolicy(&cfg.Business)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	movementRepo := persistence.NewGormStockMovementRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	refundRepo := persistence.NewGormRefundRepository(db.DB)
	refundRequestRepo := persistence.NewGormRefundRequestRepository(db.DB)

	txScope := persistence.NewGormTransactionScope(db.DB)
	deliveries := delivery.NewLoggingGateway(log)

	// Application services
	productService := fulfillment.NewProductService(productRepo, movementRepo, txScope, log)
	orderService := fulfillment.NewOrderService(orderRepo, productRepo, txScope, deliveries, log)
	invoiceService := fulfillment.NewInvoiceService(invoiceRepo, refundRepo)
	refundService := fulfillment.NewRefundService(refundRepo, refundRequestRepo, invoiceService, txScope, log)

	// Event bus. Events are published after the owning transaction
	// commits; the audit handler gives every event a log trail.
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditLogHandler(log))

	ctx := context.Background()
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	orderService.SetEventPublisher(eventBus)
	refundService.SetEventPublisher(eventBus)

	// HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	middleware.SetupValidator()

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.GET("/health", healthHandler(db))

	// Handlers
	productHandler := handler.NewProductHandler(productService)
	orderHandler := handler.NewOrderHandler(orderService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	refundHandler := handler.NewRefundHandler(refundService)

	r := router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithMiddleware(middleware.Actor()),
	)

	catalogRoutes := router.NewDomainGroup("catalog", "/catalog")
	catalogRoutes.GET("/products", productHandler.List)
	catalogRoutes.GET("/products/:id", productHandler.GetByID)
	catalogRoutes.POST("/products", middleware.RequireStaff(), productHandler.Create)
	catalogRoutes.PUT("/products/:id", middleware.RequireStaff(), productHandler.Update)
	catalogRoutes.POST("/products/:id/adjust-stock", middleware.RequireStaff(), productHandler.AdjustStock)
	catalogRoutes.GET("/products/:id/movements", middleware.RequireStaff(), productHandler.Movements)

	fulfillmentRoutes := router.NewDomainGroup("fulfillment", "/fulfillment")
	fulfillmentRoutes.POST("/orders", orderHandler.Create)
	fulfillmentRoutes.GET("/orders", orderHandler.List)
	fulfillmentRoutes.GET("/orders/:id", orderHandler.GetByID)
	fulfillmentRoutes.POST("/orders/:id/approve", middleware.RequireStaff(), orderHandler.Approve)
	fulfillmentRoutes.POST("/orders/:id/reject", middleware.RequireStaff(), orderHandler.Reject)
	fulfillmentRoutes.POST("/orders/:id/cancel", orderHandler.Cancel)

	fulfillmentRoutes.GET("/invoices", invoiceHandler.List)
	fulfillmentRoutes.GET("/invoices/:id", invoiceHandler.GetByID)
	fulfillmentRoutes.POST("/invoices/:id/complete", middleware.RequireStaff(), invoiceHandler.MarkCompleted)
	fulfillmentRoutes.POST("/invoices/:id/pay", middleware.RequireStaff(), invoiceHandler.MarkPaid)

	fulfillmentRoutes.POST("/refund-requests", refundHandler.CreateRequest)
	fulfillmentRoutes.GET("/refund-requests", refundHandler.ListRequests)
	fulfillmentRoutes.GET("/refund-requests/:id", refundHandler.GetRequest)
	fulfillmentRoutes.POST("/refund-requests/:id/approve", middleware.RequireStaff(), refundHandler.ApproveRequest)
	fulfillmentRoutes.POST("/refund-requests/:id/reject", middleware.RequireStaff(), refundHandler.RejectRequest)

	fulfillmentRoutes.POST("/refunds", middleware.RequireStaff(), refundHandler.Create)
	fulfillmentRoutes.GET("/refunds", refundHandler.List)
	fulfillmentRoutes.GET("/refunds/:id", refundHandler.GetByID)
	fulfillmentRoutes.POST("/refunds/:id/approve", middleware.RequireStaff(), refundHandler.Approve)
	fulfillmentRoutes.POST("/refunds/:id/process", middleware.RequireStaff(), refundHandler.Process)
	fulfillmentRoutes.POST("/refunds/:id/cancel", middleware.RequireStaff(), refundHandler.Cancel)
	fulfillmentRoutes.POST("/refunds/:id/complete", middleware.RequireStaff(), refundHandler.Complete)

	r.Register(catalogRoutes).
		Register(fulfillmentRoutes)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop event bus", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// applyBusinessPolicy overrides the fulfillment policy defaults with
// configured values
func applyBusinessPolicy(cfg *config.BusinessConfig) {
	order.DefaultVATRate = decimal.NewFromFloat(cfg.VATRatePercent)
	order.DefaultWithholdingTaxRate = decimal.NewFromFloat(cfg.WithholdingRatePercent)
	if cfg.DeliveryMinimumMajor != "" {
		if minimum, err := valueobject.ParseMajor(cfg.DeliveryMinimumMajor); err == nil {
			order.MinimumDeliveryTotal = minimum
		}
	}
}

// healthHandler reports process and database liveness
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
