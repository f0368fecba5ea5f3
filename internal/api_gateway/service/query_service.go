package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/amazon-ynab-reconciler/internal/domain/invoice"
	"github.com/amazon-ynab-reconciler/internal/domain/ledger"
	"github.com/amazon-ynab-reconciler/internal/platform/ynab"
	"github.com/amazon-ynab-reconciler/internal/reconcile"
)

// InvoiceServiceImpl implements the InvoiceService interface
type InvoiceServiceImpl struct {
	invoiceRepo invoice.Repository
	logger      *slog.Logger
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(logger *slog.Logger, invoiceRepo invoice.Repository) InvoiceService {
	return &InvoiceServiceImpl{
		invoiceRepo: invoiceRepo,
		logger:      logger,
	}
}

// GetLatestInvoice returns the latest archived invoice for orderID, or nil
func (s *InvoiceServiceImpl) GetLatestInvoice(ctx context.Context, orderID string) (*invoice.Record, error) {
	rec, err := s.invoiceRepo.GetLatestByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, invoice.ErrRecordNotFound{}) {
			s.logger.Info("Archived invoice not found", "order_id", orderID)
			return nil, nil
		}
		s.logger.Error("Failed to get archived invoice", "order_id", orderID, "error", err)
		return nil, err
	}
	return rec, nil
}

// PreviewServiceImpl implements the PreviewService interface
type PreviewServiceImpl struct {
	engine Reconciler
	logger *slog.Logger
}

// NewPreviewService creates a new preview service
func NewPreviewService(logger *slog.Logger, engine Reconciler) PreviewService {
	return &PreviewServiceImpl{
		engine: engine,
		logger: logger,
	}
}

// Preview applies the ledger client's storefront filter to entries and runs the engine
func (s *PreviewServiceImpl) Preview(ctx context.Context, fragments []string, documents map[string]string, entries []*ledger.Entry) (*reconcile.Result, error) {
	purchases, tips := ynab.PartitionEntries(entries)

	result, err := s.engine.Run(ctx, reconcile.Input{
		Fragments: fragments,
		Documents: documents,
		Entries:   purchases,
		Tips:      tips,
	})
	if err != nil {
		s.logger.Error("Preview run failed", "error", err)
		return nil, err
	}

	s.logger.Info("Preview run finished",
		"orders", len(result.Settlements),
		"invoices", len(result.Invoices),
		"match_patches", len(result.MatchPatches),
		"tip_patches", len(result.TipPatches),
	)
	return result, nil
}
