package components

import (
	"log/slog"

	"github.com/amazon-ynab-reconciler/internal/config"
	"github.com/amazon-ynab-reconciler/internal/domain/invoice"
	"github.com/amazon-ynab-reconciler/internal/domain/ledger"
	"github.com/amazon-ynab-reconciler/internal/domain/outbox"
	"github.com/amazon-ynab-reconciler/internal/domain/run"
	"github.com/amazon-ynab-reconciler/internal/platform/persistence"
	"github.com/amazon-ynab-reconciler/internal/reconcile"
	"github.com/amazon-ynab-reconciler/internal/reconciliation_processor/service"
)

// CreateProcessingService creates a new ProcessingService with all its dependencies.
func CreateProcessingService(
	db persistence.TxBeginner,
	runRepo run.Repository,
	outboxRepo outbox.Repository,
	invoiceRepo invoice.Repository,
	gateway ledger.Gateway,
	logger *slog.Logger,
	cfg *config.Config,
) service.ProcessingService {
	validator := NewRequestValidator(runRepo, logger)
	fetcher := NewLedgerFetcher(gateway, cfg.YNAB.BudgetID, cfg.YNAB.DaysBack, logger)
	engine := reconcile.NewEngine(reconcile.EngineConfigFrom(cfg), reconcile.NewLogReporter(logger.With("component", "engine")))
	archiver := NewInvoiceArchiver(invoiceRepo, logger)
	runRecorder := NewRunRecorder(runRepo, logger)
	outboxManager := NewOutboxManager(outboxRepo, logger)
	failureRecorder := NewFailureRecorder(runRepo, logger)

	baseService := service.NewProcessingService(
		db,
		validator,
		fetcher,
		engine,
		archiver,
		runRecorder,
		outboxManager,
		failureRecorder,
		logger,
	)

	workerPoolService, err := service.NewWorkerPoolProcessingService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)

	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool processing service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}
