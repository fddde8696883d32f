// Package main is the entry point for the texcore API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"texcore/internal/app"
	"texcore/internal/domain/billing"
	"texcore/internal/domain/catalogs/product"
	"texcore/internal/domain/documents/production"
	"texcore/internal/domain/registers/stock"
	v1 "texcore/internal/infrastructure/http/v1"
	"texcore/internal/infrastructure/storage/postgres"
	"texcore/internal/infrastructure/storage/postgres/catalog_repo"
	"texcore/internal/infrastructure/storage/postgres/document_repo"
	"texcore/internal/infrastructure/storage/postgres/register_repo"
	"texcore/pkg/logger"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: !cfg.IsProduction(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting texcore server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.PGDSN)
	poolCfg.MaxConns = cfg.PGMaxConns
	poolCfg.MinConns = cfg.PGMinConns

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Storage ---
	stockRepo := register_repo.NewStockRepo(txManager)
	productionRepo := document_repo.NewProductionRepo(txManager)
	billingRepo := document_repo.NewBillingRepo(txManager)
	productRepo := catalog_repo.NewProductRepo(txManager)
	formulaRepo := catalog_repo.NewFormulaRepo(txManager)

	snapshots, err := postgres.NewSnapshotStore(txManager)
	if err != nil {
		log.Fatalw("failed to initialize snapshot store", "error", err)
	}

	// --- Services ---
	ledger := stock.NewService(stockRepo, snapshots, txManager)
	productionService := production.NewService(productionRepo, formulaRepo, ledger, txManager)
	billingService := billing.NewService(billingRepo, txManager)
	productService := product.NewService(productRepo)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:       pool,
		Logger:     log,
		Snapshots:  snapshots,
		Ledger:     ledger,
		Production: productionService,
		Billing:    billingService,
		Products:   productService,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
		IdleTimeout:  cfg.AppIdleTimeout,
	}

	go func() {
		log.Infow("server starting", "addr", cfg.AppAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
