package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/amazon-ynab-reconciler/internal/api_gateway"
	"github.com/amazon-ynab-reconciler/internal/api_gateway/service"
	"github.com/amazon-ynab-reconciler/internal/config"
	"github.com/amazon-ynab-reconciler/internal/data/mongo"
	"github.com/amazon-ynab-reconciler/internal/data/postgres"
	"github.com/amazon-ynab-reconciler/internal/export"
	"github.com/amazon-ynab-reconciler/internal/logger"
	"github.com/amazon-ynab-reconciler/internal/platform/messaging/producers"
	"github.com/amazon-ynab-reconciler/internal/platform/persistence"
	"github.com/amazon-ynab-reconciler/internal/reconcile"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producer for reconciliation requests
	kafkaProducer, err := producers.NewReconciliationReqProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize API Gateway Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	runRepo := postgres.NewRunRepository(log, postgresDB)
	invoiceRepo := mongo.NewInvoiceRepository(log, mongoDB.Database())

	// Previews run the engine in-process and never touch the ledger
	engine := reconcile.NewEngine(reconcile.EngineConfigFrom(cfg), reconcile.NewLogReporter(log.With("component", "preview_engine")))

	// Initialize services
	services := api_gateway.Services{
		Reconciliation: service.NewReconciliationService(log, runRepo, kafkaProducer),
		Invoice:        service.NewInvoiceService(log, invoiceRepo),
		Preview:        service.NewPreviewService(log, engine),
		Report:         export.NewService(runRepo, invoiceRepo, log),
	}

	// Initialize REST server
	server := api_gateway.NewServer(log, cfg, services)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// Stop accepting requests before releasing the backends they use
	var shutdownErr error
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
		shutdownErr = err
	}

	if err := kafkaProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
		shutdownErr = err
	}

	postgresDB.Close()

	if err := mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
		shutdownErr = err
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if shutdownErr != nil {
		log.Error("Server shutdown completed with errors")
		os.Exit(1)
	}
	log.Info("Server shutdown completed successfully")
}
