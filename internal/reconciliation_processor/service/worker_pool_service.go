package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/amazon-ynab-reconciler/internal/domain/shared"
	"github.com/panjf2000/ants/v2"
)

// WorkerPoolProcessingService bounds concurrent reconciliations with an ants pool
type WorkerPoolProcessingService struct {
	baseService ProcessingService
	pool        *ants.Pool
	logger      *slog.Logger
	// Use a mutex to protect access to the results map
	mu      sync.Mutex
	results map[string]chan error
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolProcessingService(
	baseService ProcessingService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolProcessingService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolProcessingService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
		results:     make(map[string]chan error),
	}, nil
}

// ProcessReconciliation submits a run to the worker pool and waits for its result.
func (s *WorkerPoolProcessingService) ProcessReconciliation(ctx context.Context, request *shared.ReconciliationRequest) error {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Submitting reconciliation to worker pool", "run_id", request.RunID.String())

	resultChan := make(chan error, 1)

	runID := request.RunID.String()
	s.mu.Lock()
	s.results[runID] = resultChan
	s.mu.Unlock()

	// Copy the request so the worker never races with the caller
	requestCopy := *request

	err := s.pool.Submit(func() {
		var err error
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Reconciliation panicked", "run_id", runID, "panic", r)
				err = fmt.Errorf("reconciliation %s panicked: %v", runID, r)
			}
			s.mu.Lock()
			delete(s.results, runID)
			s.mu.Unlock()

			resultChan <- err
		}()

		err = s.baseService.ProcessReconciliation(ctx, &requestCopy)
	})

	if err != nil {
		s.mu.Lock()
		delete(s.results, runID)
		s.mu.Unlock()

		logger.Error("Failed to submit reconciliation to worker pool",
			"run_id", runID,
			"error", err,
		)
		return err
	}

	// The worker finishes on its own; the buffered channel absorbs its result
	select {
	case err := <-resultChan:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of runs submitted and not yet finished.
func (s *WorkerPoolProcessingService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolProcessingService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolProcessingService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolProcessingService) Capacity() int {
	return s.pool.Cap()
}
