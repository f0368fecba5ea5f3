package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amazon-ynab-reconciler/internal/domain/ledger"
	"github.com/amazon-ynab-reconciler/internal/domain/shared"
	"github.com/amazon-ynab-reconciler/internal/platform/persistence"
	"github.com/amazon-ynab-reconciler/internal/reconcile"
	"github.com/jackc/pgx/v5"
)

type ProcessingServiceImpl struct {
	db              persistence.TxBeginner
	validator       RequestValidator
	fetcher         LedgerFetcher
	reconciler      Reconciler
	archiver        InvoiceArchiver
	runRecorder     RunRecorder
	outboxManager   OutboxManager
	failureRecorder FailureRecorder
	logger          *slog.Logger
}

func NewProcessingService(
	db persistence.TxBeginner,
	validator RequestValidator,
	fetcher LedgerFetcher,
	reconciler Reconciler,
	archiver InvoiceArchiver,
	runRecorder RunRecorder,
	outboxManager OutboxManager,
	failureRecorder FailureRecorder,
	logger *slog.Logger,
) ProcessingService {
	return &ProcessingServiceImpl{
		db:              db,
		validator:       validator,
		fetcher:         fetcher,
		reconciler:      reconciler,
		archiver:        archiver,
		runRecorder:     runRecorder,
		outboxManager:   outboxManager,
		failureRecorder: failureRecorder,
		logger:          logger,
	}
}

// ProcessReconciliation runs one reconciliation end to end. Business failures
// are recorded on the run and acknowledged; infrastructure failures are
// returned so the message is redelivered.
func (s *ProcessingServiceImpl) ProcessReconciliation(ctx context.Context, request *shared.ReconciliationRequest) error {
	logger := s.logger.With("run_id", request.RunID.String())
	if request.CorrelationID != "" {
		logger = logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Processing reconciliation", "fragments", len(request.Fragments), "invoices", len(request.Invoices))

	// 1. Validate the request
	if err := s.validator.Validate(ctx, request); err != nil {
		logger.Error("Reconciliation request validation failed", "error", err)
		s.recordFailure(ctx, logger, request, shared.FailureReasonInvalidRequest)
		return nil // Acknowledge, redelivery cannot fix the payload
	}

	// 2. Check idempotency
	skip, err := s.validator.CheckIdempotency(ctx, request)
	if err != nil {
		return err
	}
	if skip {
		return nil
	}

	if err := s.runRecorder.MarkProcessing(ctx, request); err != nil {
		return err
	}

	// 3. Fetch the ledger
	snapshot, err := s.fetcher.Fetch(ctx)
	if err != nil {
		if errors.Is(err, ledger.ErrBudgetNotFound{}) {
			logger.Error("Budget not available", "error", err)
			s.recordFailure(ctx, logger, request, shared.FailureReasonBudgetNotFound)
			return nil
		}
		logger.Error("Failed to fetch ledger entries", "error", err)
		return fmt.Errorf("failed to fetch ledger for run %s: %w", request.RunID.String(), err)
	}

	// 4. Reconcile
	result, err := s.reconciler.Run(ctx, reconcile.Input{
		Fragments: request.Fragments,
		Documents: request.Invoices,
		Entries:   snapshot.Entries,
		Tips:      snapshot.Tips,
	})
	if err != nil {
		logger.Error("Reconciliation engine failed", "error", err)
		return fmt.Errorf("reconciliation failed for run %s: %w", request.RunID.String(), err)
	}

	// 5. Archive extracted invoices
	if err := s.archiver.Archive(ctx, request.RunID, result); err != nil {
		logger.Error("Failed to archive invoices", "error", err)
		return fmt.Errorf("failed to archive invoices for run %s: %w", request.RunID.String(), err)
	}

	// 6. Record the outcome and enqueue patches atomically
	err = persistence.RunInTx(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := s.runRecorder.RecordCompleted(ctx, tx, request, snapshot, result); err != nil {
			return err
		}
		return s.outboxManager.EnqueuePatches(ctx, tx, request.RunID, snapshot.BudgetID, result)
	})
	if err != nil {
		logger.Error("Failed to commit reconciliation outcome", "error", err)
		return fmt.Errorf("failed to commit outcome for run %s: %w", request.RunID.String(), err)
	}

	logger.Info("Reconciliation completed",
		"budget_id", snapshot.BudgetID,
		"matches", len(result.ConfidentPairs),
		"ambiguous", result.AmbiguousCount(),
		"failed_orders", len(result.FailedOrders),
		"tips", len(result.TipPatches),
	)
	return nil
}

func (s *ProcessingServiceImpl) recordFailure(ctx context.Context, logger *slog.Logger, request *shared.ReconciliationRequest, reason shared.FailureReason) {
	if err := s.failureRecorder.RecordFailure(ctx, request, reason); err != nil {
		logger.Error("Failed to record run failure", "reason", string(reason), "error", err)
	}
}
