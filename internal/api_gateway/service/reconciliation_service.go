package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amazon-ynab-reconciler/internal/domain/run"
	"github.com/amazon-ynab-reconciler/internal/domain/shared"
	"github.com/amazon-ynab-reconciler/internal/platform/messaging/producers"
	"github.com/google/uuid"
)

// ReconciliationServiceImpl implements the ReconciliationService interface
type ReconciliationServiceImpl struct {
	runRepo  run.Repository
	producer producers.MessagePublisher
	logger   *slog.Logger
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(logger *slog.Logger, runRepo run.Repository, producer producers.MessagePublisher) ReconciliationService {
	return &ReconciliationServiceImpl{
		runRepo:  runRepo,
		producer: producer,
		logger:   logger,
	}
}

// SubmitReconciliation stores a PENDING run and publishes the request.
// Returns run ID, existing run (if found via idempotency key), and any error
func (s *ReconciliationServiceImpl) SubmitReconciliation(ctx context.Context, request *shared.ReconciliationRequest) (string, *run.Run, error) {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}

	if request.IdempotencyKey != "" {
		existing, err := s.findByIdempotencyKey(ctx, request.IdempotencyKey)
		if err != nil {
			logger.Error("Failed to check for existing run with idempotency key",
				"idempotency_key", request.IdempotencyKey,
				"error", err,
			)
			return "", nil, err
		}
		if existing != nil {
			logger.Info("Found existing run with idempotency key",
				"idempotency_key", request.IdempotencyKey,
				"run_id", existing.ID.String(),
				"status", string(existing.Status),
			)
			return existing.ID.String(), existing, nil
		}
	}

	rn := run.NewRun(request.RunID, request.IdempotencyKey, request.CorrelationID)
	rn.FragmentCount = len(request.Fragments)
	if err := s.runRepo.Create(ctx, rn); err != nil {
		if errors.Is(err, run.ErrDuplicateIdempotencyKey{}) {
			// Lost a race with a concurrent submission using the same key
			existing, findErr := s.findByIdempotencyKey(ctx, request.IdempotencyKey)
			if findErr == nil && existing != nil {
				return existing.ID.String(), existing, nil
			}
		}
		logger.Error("Failed to create pending run", "run_id", request.RunID.String(), "error", err)
		return "", nil, err
	}

	key := request.RunID.String()
	if err := s.producer.Publish(producers.WithCorrelationID(ctx, request.CorrelationID), key, request); err != nil {
		logger.Error("Failed to publish reconciliation request",
			"run_id", key,
			"fragments", len(request.Fragments),
			"invoices", len(request.Invoices),
			"error", err,
		)
		if failErr := rn.Fail(shared.FailureReasonPublishFailed); failErr == nil {
			if saveErr := s.runRepo.Save(ctx, rn); saveErr != nil {
				logger.Error("Failed to mark unpublished run as failed", "run_id", key, "error", saveErr)
			}
		}
		return "", nil, fmt.Errorf("failed to publish reconciliation request: %w", err)
	}

	logger.Info("Reconciliation request published",
		"run_id", key,
		"fragments", len(request.Fragments),
		"invoices", len(request.Invoices),
	)

	return key, nil, nil
}

// GetRunByID retrieves a run by its ID. Returns nil if not found
func (s *ReconciliationServiceImpl) GetRunByID(ctx context.Context, id uuid.UUID) (*run.Run, error) {
	rn, err := s.runRepo.GetByID(ctx, id)
	if err != nil {
		var errRunNotFound run.ErrRunNotFound
		if errors.As(err, &errRunNotFound) {
			s.logger.Info("Run not found", "run_id", id.String())
			return nil, nil
		}
		s.logger.Error("Failed to get run by ID", "run_id", id.String(), "error", err)
		return nil, err
	}
	return rn, nil
}

func (s *ReconciliationServiceImpl) findByIdempotencyKey(ctx context.Context, key string) (*run.Run, error) {
	rn, err := s.runRepo.GetByIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, run.ErrRunNotFound{}) {
			return nil, nil
		}
		return nil, err
	}
	return rn, nil
}
