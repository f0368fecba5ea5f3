package service

import (
	"context"

	"github.com/amazon-ynab-reconciler/internal/domain/invoice"
	"github.com/amazon-ynab-reconciler/internal/domain/ledger"
	"github.com/amazon-ynab-reconciler/internal/domain/run"
	"github.com/amazon-ynab-reconciler/internal/domain/shared"
	"github.com/amazon-ynab-reconciler/internal/reconcile"
	"github.com/google/uuid"
)

// ReconciliationService defines the interface for reconciliation run operations
type ReconciliationService interface {
	// SubmitReconciliation stores a pending run and publishes the request with idempotency support.
	// Returns the run ID, the existing run (if found via idempotency key), and any error
	SubmitReconciliation(ctx context.Context, request *shared.ReconciliationRequest) (string, *run.Run, error)

	// GetRunByID retrieves a run by its ID
	// Returns nil if the run is not found
	GetRunByID(ctx context.Context, id uuid.UUID) (*run.Run, error)
}

// InvoiceService defines the interface for archived invoice lookups
type InvoiceService interface {
	// GetLatestInvoice returns the most recently archived invoice of an order
	// Returns nil if the order was never archived
	GetLatestInvoice(ctx context.Context, orderID string) (*invoice.Record, error)
}

// PreviewService runs the engine without side effects
type PreviewService interface {
	Preview(ctx context.Context, fragments []string, documents map[string]string, entries []*ledger.Entry) (*reconcile.Result, error)
}

// ReportService renders a run as an XLSX workbook
type ReportService interface {
	// RunReportXLSX returns run.ErrRunNotFound when the run does not exist
	RunReportXLSX(ctx context.Context, runID uuid.UUID) ([]byte, error)
}

// Reconciler is the engine the preview runs
type Reconciler interface {
	Run(ctx context.Context, in reconcile.Input) (*reconcile.Result, error)
}
