package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amazon-ynab-reconciler/internal/domain/run"
	"github.com/amazon-ynab-reconciler/internal/domain/shared"
	"github.com/amazon-ynab-reconciler/internal/reconciliation_processor/service"
)

type FailureRecorderImpl struct {
	runRepo run.Repository
	logger  *slog.Logger
}

func NewFailureRecorder(runRepo run.Repository, logger *slog.Logger) service.FailureRecorder {
	return &FailureRecorderImpl{
		runRepo: runRepo,
		logger:  logger,
	}
}

// RecordFailure marks the run FAILED with reason, creating it when absent
func (r *FailureRecorderImpl) RecordFailure(ctx context.Context, request *shared.ReconciliationRequest, reason shared.FailureReason) error {
	logger := r.logger
	if request.CorrelationID != "" {
		logger = r.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Recording failed run", "run_id", request.RunID.String(), "reason", string(reason))

	rn, err := loadOrNewRun(ctx, r.runRepo, request)
	if err != nil {
		logger.Error("Failed to load run for failure", "run_id", request.RunID.String(), "error", err)
		return err
	}

	if rn.IsFinished() {
		logger.Info("Run already finished", "run_id", rn.ID.String(), "status", rn.Status)
		return nil
	}

	rn.FragmentCount = len(request.Fragments)
	if err := rn.Fail(reason); err != nil {
		return err
	}

	if err := r.runRepo.Save(ctx, rn); err != nil {
		logger.Error("Failed to save failed run", "run_id", rn.ID.String(), "error", err)
		return fmt.Errorf("failed to save failed run %s: %w", rn.ID.String(), err)
	}

	logger.Info("Successfully recorded failed run", "run_id", rn.ID.String())
	return nil
}
