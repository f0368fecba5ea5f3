package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/amazon-ynab-reconciler/internal/domain/run"
	"github.com/amazon-ynab-reconciler/internal/domain/shared"
	"github.com/amazon-ynab-reconciler/internal/reconcile"
	"github.com/amazon-ynab-reconciler/internal/reconciliation_processor/service"
	"github.com/jackc/pgx/v5"
)

// RunRecorderImpl moves runs through PROCESSING and COMPLETED
type RunRecorderImpl struct {
	runRepo run.Repository
	logger  *slog.Logger
}

func NewRunRecorder(runRepo run.Repository, logger *slog.Logger) service.RunRecorder {
	return &RunRecorderImpl{
		runRepo: runRepo,
		logger:  logger,
	}
}

// MarkProcessing flags the run as picked up, creating it if the gateway never did
func (r *RunRecorderImpl) MarkProcessing(ctx context.Context, request *shared.ReconciliationRequest) error {
	rn, err := loadOrNewRun(ctx, r.runRepo, request)
	if err != nil {
		return err
	}
	if err := rn.Start(); err != nil {
		return err
	}
	rn.FragmentCount = len(request.Fragments)
	if err := r.runRepo.Save(ctx, rn); err != nil {
		return fmt.Errorf("failed to mark run %s as processing: %w", request.RunID.String(), err)
	}
	return nil
}

// RecordCompleted stores the run summary inside tx
func (r *RunRecorderImpl) RecordCompleted(ctx context.Context, tx pgx.Tx, request *shared.ReconciliationRequest, snapshot *service.LedgerSnapshot, result *reconcile.Result) (*run.Run, error) {
	runRepoTx := r.runRepo.WithTx(tx)

	rn, err := loadOrNewRun(ctx, runRepoTx, request)
	if err != nil {
		return nil, err
	}

	rn.BudgetID = snapshot.BudgetID
	rn.FragmentCount = len(request.Fragments)
	rn.OrderCount = len(result.Settlements)
	rn.InvoiceCount = len(result.Invoices)
	rn.MatchCount = len(result.ConfidentPairs)
	rn.AmbiguousCount = result.AmbiguousCount()
	rn.TipCount = len(result.TipPatches)
	rn.Matches = append(rn.Matches[:0], result.ConfidentPairs...)
	rn.FailedOrders = failedOrders(result)

	if err := rn.Complete(); err != nil {
		return nil, err
	}

	if err := runRepoTx.Save(ctx, rn); err != nil {
		r.logger.Error("Failed to save completed run", "run_id", rn.ID.String(), "error", err)
		return nil, fmt.Errorf("failed to save run %s: %w", rn.ID.String(), err)
	}

	r.logger.Info("Run recorded as completed", "run_id", rn.ID.String(), "matches", rn.MatchCount, "ambiguous", rn.AmbiguousCount)
	return rn, nil
}

// loadOrNewRun returns the stored run, or a new pending one when the gateway never stored it
func loadOrNewRun(ctx context.Context, repo run.Repository, request *shared.ReconciliationRequest) (*run.Run, error) {
	rn, err := repo.GetByID(ctx, request.RunID)
	if err == nil {
		return rn, nil
	}
	if errors.Is(err, run.ErrRunNotFound{}) {
		return run.NewRun(request.RunID, request.IdempotencyKey, request.CorrelationID), nil
	}
	return nil, fmt.Errorf("failed to load run %s: %w", request.RunID.String(), err)
}

// failedOrders lists orders whose invoice failed extraction or was never supplied
func failedOrders(result *reconcile.Result) []string {
	orders := make([]string, 0, len(result.FailedOrders)+len(result.MissingDocuments))
	for orderID := range result.FailedOrders {
		orders = append(orders, orderID)
	}
	orders = append(orders, result.MissingDocuments...)
	sort.Strings(orders)
	return orders
}
