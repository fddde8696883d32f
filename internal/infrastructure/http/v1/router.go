// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"texcore/internal/domain/billing"
	"texcore/internal/domain/catalogs/product"
	"texcore/internal/domain/documents/production"
	"texcore/internal/domain/registers/stock"
	"texcore/internal/infrastructure/http/v1/handlers"
	"texcore/internal/infrastructure/http/v1/middleware"
	"texcore/internal/infrastructure/storage/postgres"
	"texcore/pkg/logger"
)

// RouterConfig holds the wired services the router exposes.
type RouterConfig struct {
	// Pool is the database connection (for health checks).
	Pool *postgres.Pool

	// Logger for request logging.
	Logger *logger.Logger

	// Snapshots serves the pre-correction entry images.
	Snapshots *postgres.SnapshotStore

	Ledger     *stock.Service
	Production *production.Service
	Billing    *billing.Service
	Products   *product.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1
	api := router.Group("/api/v1")
	api.Use(middleware.Actor())
	{
		baseHandler := handlers.NewBaseHandler()

		// Movement journal
		{
			handler := handlers.NewMovementHandler(baseHandler, cfg.Ledger, cfg.Snapshots)
			api.POST("/movements", handler.Record)
			api.PATCH("/movements/:id", handler.Correct)
			api.GET("/movements/:id/audit", handler.AuditTrail)
			api.GET("/movements/:id/snapshots", handler.Snapshots)
			api.POST("/transfers", handler.Transfer)
		}

		// Reports
		{
			handler := handlers.NewReportsHandler(baseHandler, cfg.Ledger)
			api.GET("/warehouses/:id/kardex", handler.Kardex)
			api.GET("/stock/alerts", handler.LowStock)
		}

		// Production lots
		{
			handler := handlers.NewProductionHandler(baseHandler, cfg.Production)
			lots := api.Group("/production/lots")
			lots.POST("", handler.Register)
			lots.GET("/:id", handler.Get)
			lots.DELETE("/:id", handler.Reject)
		}

		// Billing
		{
			handler := handlers.NewBillingHandler(baseHandler, cfg.Billing)
			api.POST("/customers/:id/reconcile", handler.Reconcile)
			api.GET("/customers/:id/balance", handler.Balance)
		}

		// Product catalog
		{
			handler := handlers.NewProductHandler(baseHandler, cfg.Products)
			products := api.Group("/catalog/products")
			products.POST("", handler.Create)
			products.GET("", handler.List)
			products.GET("/:id", handler.Get)
			products.PUT("/:id", handler.Update)
		}
	}

	return router
}
