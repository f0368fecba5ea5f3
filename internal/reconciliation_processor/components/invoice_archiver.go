package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amazon-ynab-reconciler/internal/domain/invoice"
	"github.com/amazon-ynab-reconciler/internal/reconcile"
	"github.com/amazon-ynab-reconciler/internal/reconciliation_processor/service"
	"github.com/google/uuid"
)

type InvoiceArchiverImpl struct {
	invoiceRepo invoice.Repository
	logger      *slog.Logger
}

func NewInvoiceArchiver(invoiceRepo invoice.Repository, logger *slog.Logger) service.InvoiceArchiver {
	return &InvoiceArchiverImpl{
		invoiceRepo: invoiceRepo,
		logger:      logger,
	}
}

// Archive stores every extracted invoice of the run, tagged with its confident ledger match
func (a *InvoiceArchiverImpl) Archive(ctx context.Context, runID uuid.UUID, result *reconcile.Result) error {
	if len(result.Invoices) == 0 {
		return nil
	}

	records := make([]*invoice.Record, 0, len(result.Invoices))
	for _, orderID := range reconcile.SortedOrderIDs(result.Invoices) {
		records = append(records, invoice.NewRecord(runID, result.Invoices[orderID], result.LedgerEntryFor(orderID)))
	}

	if err := a.invoiceRepo.SaveMany(ctx, records); err != nil {
		return fmt.Errorf("failed to archive %d invoices: %w", len(records), err)
	}

	a.logger.Info("Archived invoices", "run_id", runID.String(), "count", len(records))
	return nil
}
