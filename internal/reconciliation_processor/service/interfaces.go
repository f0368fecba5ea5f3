package service

import (
	"context"

	"github.com/amazon-ynab-reconciler/internal/domain/ledger"
	"github.com/amazon-ynab-reconciler/internal/domain/run"
	"github.com/amazon-ynab-reconciler/internal/domain/shared"
	"github.com/amazon-ynab-reconciler/internal/reconcile"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProcessingService defines the interface for processing reconciliation requests.
type ProcessingService interface {
	ProcessReconciliation(ctx context.Context, request *shared.ReconciliationRequest) error
}

// RequestValidator validates reconciliation requests before processing
type RequestValidator interface {
	Validate(ctx context.Context, request *shared.ReconciliationRequest) error
	CheckIdempotency(ctx context.Context, request *shared.ReconciliationRequest) (bool, error)
}

// LedgerSnapshot is the ledger state one run reconciles against
type LedgerSnapshot struct {
	BudgetID string
	Entries  map[string]*ledger.Entry
	Tips     map[string]*ledger.Entry
}

// LedgerFetcher loads the unreconciled storefront entries from the ledger
type LedgerFetcher interface {
	Fetch(ctx context.Context) (*LedgerSnapshot, error)
}

// Reconciler runs the reconciliation engine
type Reconciler interface {
	Run(ctx context.Context, in reconcile.Input) (*reconcile.Result, error)
}

// InvoiceArchiver stores the invoices extracted by a run
type InvoiceArchiver interface {
	Archive(ctx context.Context, runID uuid.UUID, result *reconcile.Result) error
}

// RunRecorder tracks run progress and outcome
type RunRecorder interface {
	MarkProcessing(ctx context.Context, request *shared.ReconciliationRequest) error
	RecordCompleted(ctx context.Context, tx pgx.Tx, request *shared.ReconciliationRequest, snapshot *LedgerSnapshot, result *reconcile.Result) (*run.Run, error)
}

// OutboxManager enqueues the patch batches of a completed run
type OutboxManager interface {
	EnqueuePatches(ctx context.Context, tx pgx.Tx, runID uuid.UUID, budgetID string, result *reconcile.Result) error
}

// FailureRecorder handles recording failed runs
type FailureRecorder interface {
	RecordFailure(ctx context.Context, request *shared.ReconciliationRequest, reason shared.FailureReason) error
}
