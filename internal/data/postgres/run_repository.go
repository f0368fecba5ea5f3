// Package postgres provides PostgreSQL implementations of the domain repositories.
// It stores reconciliation runs and the patch outbox, keeping both writable inside
// one database transaction.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amazon-ynab-reconciler/internal/domain/match"
	"github.com/amazon-ynab-reconciler/internal/domain/run"
	"github.com/amazon-ynab-reconciler/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const runColumns = `id, idempotency_key, correlation_id, budget_id, status, fragment_count, order_count,
		invoice_count, match_count, ambiguous_count, tip_count, matches, failed_orders, failure_reason,
		created_at, updated_at, completed_at`

// RunRepository implements the run.Repository interface for PostgreSQL
type RunRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewRunRepository creates a new PostgreSQL run repository
func NewRunRepository(logger *slog.Logger, db *persistence.PostgresDB) run.Repository {
	return &RunRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx
func (r *RunRepository) WithTx(tx pgx.Tx) run.Repository {
	return &RunRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new run. A reused idempotency key yields ErrDuplicateIdempotencyKey.
func (r *RunRepository) Create(ctx context.Context, rn *run.Run) error {
	query := `
		INSERT INTO reconciliation_runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	args, err := runArgs(rn)
	if err != nil {
		return err
	}

	if _, err := r.querier.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return run.ErrDuplicateIdempotencyKey{Key: rn.IdempotencyKey}
		}
		r.logger.Error("Failed to create run", "run_id", rn.ID.String(), "error", err)
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

// Save inserts the run or overwrites the outcome of an existing one
func (r *RunRepository) Save(ctx context.Context, rn *run.Run) error {
	query := `
		INSERT INTO reconciliation_runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO UPDATE SET
			budget_id = EXCLUDED.budget_id,
			status = EXCLUDED.status,
			fragment_count = EXCLUDED.fragment_count,
			order_count = EXCLUDED.order_count,
			invoice_count = EXCLUDED.invoice_count,
			match_count = EXCLUDED.match_count,
			ambiguous_count = EXCLUDED.ambiguous_count,
			tip_count = EXCLUDED.tip_count,
			matches = EXCLUDED.matches,
			failed_orders = EXCLUDED.failed_orders,
			failure_reason = EXCLUDED.failure_reason,
			updated_at = EXCLUDED.updated_at,
			completed_at = EXCLUDED.completed_at
	`

	args, err := runArgs(rn)
	if err != nil {
		return err
	}

	if _, err := r.querier.Exec(ctx, query, args...); err != nil {
		r.logger.Error("Failed to save run", "run_id", rn.ID.String(), "error", err)
		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

// GetByID retrieves a run by its ID
func (r *RunRepository) GetByID(ctx context.Context, id uuid.UUID) (*run.Run, error) {
	query := `SELECT ` + runColumns + ` FROM reconciliation_runs WHERE id = $1`

	rn, err := scanRun(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, run.ErrRunNotFound{RunID: id}
		}
		r.logger.Error("Failed to get run", "run_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return rn, nil
}

// GetByIdempotencyKey retrieves the run created for an idempotency key
func (r *RunRepository) GetByIdempotencyKey(ctx context.Context, key string) (*run.Run, error) {
	query := `SELECT ` + runColumns + ` FROM reconciliation_runs WHERE idempotency_key = $1`

	rn, err := scanRun(r.querier.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, run.ErrRunNotFound{}
		}
		r.logger.Error("Failed to get run by idempotency key", "idempotency_key", key, "error", err)
		return nil, fmt.Errorf("failed to get run by idempotency key: %w", err)
	}

	return rn, nil
}

func runArgs(rn *run.Run) ([]any, error) {
	matches := rn.Matches
	if matches == nil {
		matches = []match.Pair{}
	}
	matchesJSON, err := json.Marshal(matches)
	if err != nil {
		return nil, fmt.Errorf("failed to encode run matches: %w", err)
	}

	failedOrders := rn.FailedOrders
	if failedOrders == nil {
		failedOrders = []string{}
	}

	var idempotencyKey *string
	if rn.IdempotencyKey != "" {
		idempotencyKey = &rn.IdempotencyKey
	}

	return []any{
		rn.ID,
		idempotencyKey,
		rn.CorrelationID,
		rn.BudgetID,
		rn.Status,
		rn.FragmentCount,
		rn.OrderCount,
		rn.InvoiceCount,
		rn.MatchCount,
		rn.AmbiguousCount,
		rn.TipCount,
		matchesJSON,
		failedOrders,
		rn.FailureReason,
		rn.CreatedAt,
		rn.UpdatedAt,
		rn.CompletedAt,
	}, nil
}

func scanRun(row pgx.Row) (*run.Run, error) {
	var (
		rn             run.Run
		idempotencyKey *string
		matchesJSON    []byte
	)
	err := row.Scan(
		&rn.ID,
		&idempotencyKey,
		&rn.CorrelationID,
		&rn.BudgetID,
		&rn.Status,
		&rn.FragmentCount,
		&rn.OrderCount,
		&rn.InvoiceCount,
		&rn.MatchCount,
		&rn.AmbiguousCount,
		&rn.TipCount,
		&matchesJSON,
		&rn.FailedOrders,
		&rn.FailureReason,
		&rn.CreatedAt,
		&rn.UpdatedAt,
		&rn.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if idempotencyKey != nil {
		rn.IdempotencyKey = *idempotencyKey
	}
	rn.Matches = []match.Pair{}
	if len(matchesJSON) > 0 {
		if err := json.Unmarshal(matchesJSON, &rn.Matches); err != nil {
			return nil, fmt.Errorf("failed to decode run matches: %w", err)
		}
	}
	if rn.FailedOrders == nil {
		rn.FailedOrders = []string{}
	}

	return &rn, nil
}
