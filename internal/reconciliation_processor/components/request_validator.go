package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amazon-ynab-reconciler/internal/domain/run"
	"github.com/amazon-ynab-reconciler/internal/domain/shared"
	"github.com/amazon-ynab-reconciler/internal/reconciliation_processor/service"
	"github.com/google/uuid"
)

type RequestValidatorImpl struct {
	runRepo run.Repository
	logger  *slog.Logger
}

func NewRequestValidator(runRepo run.Repository, logger *slog.Logger) service.RequestValidator {
	return &RequestValidatorImpl{
		runRepo: runRepo,
		logger:  logger,
	}
}

// Validate checks the request identifies a run and carries something to reconcile
func (v *RequestValidatorImpl) Validate(ctx context.Context, request *shared.ReconciliationRequest) error {
	if request.RunID == uuid.Nil {
		v.logger.Error("Reconciliation request without run ID", "correlation_id", request.CorrelationID)
		return fmt.Errorf("run id is required")
	}

	if err := request.Validate(); err != nil {
		v.logger.Error("Invalid reconciliation request", "run_id", request.RunID.String(), "error", err)
		return err
	}

	return nil
}

// CheckIdempotency reports whether the run already reached a terminal state
func (v *RequestValidatorImpl) CheckIdempotency(ctx context.Context, request *shared.ReconciliationRequest) (bool, error) {
	logger := v.logger
	if request.CorrelationID != "" {
		logger = v.logger.With("correlation_id", request.CorrelationID)
	}

	existing, err := v.runRepo.GetByID(ctx, request.RunID)
	if err != nil {
		if errors.Is(err, run.ErrRunNotFound{}) {
			return false, nil
		}
		logger.Error("Failed to check run for idempotency", "run_id", request.RunID.String(), "error", err)
		return false, fmt.Errorf("idempotency check failed for run %s: %w", request.RunID.String(), err)
	}

	if existing.IsFinished() {
		logger.Info("Run already processed (idempotency)", "run_id", request.RunID.String(), "status", existing.Status)
		return true, nil
	}

	return false, nil
}
