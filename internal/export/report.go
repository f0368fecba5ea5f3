// Package export renders reconciliation runs as XLSX workbooks.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amazon-ynab-reconciler/internal/domain/invoice"
	"github.com/amazon-ynab-reconciler/internal/domain/run"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet  = "Summary"
	invoicesSheet = "Invoices"
	dateLayout    = "2006-01-02"
)

var invoiceHeaders = []string{
	"Order ID",
	"Items",
	"Total Before Tax",
	"Tax",
	"Tax Rate",
	"Charged",
	"Settlement Date",
	"Ledger Entry",
}

// Service builds run reports from the run store and the invoice archive
type Service struct {
	runRepo     run.Repository
	invoiceRepo invoice.Repository
	logger      *slog.Logger
}

func NewService(runRepo run.Repository, invoiceRepo invoice.Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{runRepo: runRepo, invoiceRepo: invoiceRepo, logger: logger}
}

// RunReportXLSX returns a workbook with a run summary sheet and one row per
// archived invoice. A missing run yields run.ErrRunNotFound.
func (s *Service) RunReportXLSX(ctx context.Context, runID uuid.UUID) ([]byte, error) {
	start := time.Now()

	rn, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}

	records, err := s.invoiceRepo.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(invoicesSheet); err != nil {
		return nil, err
	}

	if err := writeSummary(f, rn); err != nil {
		return nil, fmt.Errorf("xlsx summary: %w", err)
	}
	if err := writeInvoices(f, records); err != nil {
		return nil, fmt.Errorf("xlsx invoices: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("Run report exported",
		"run_id", runID.String(),
		"rows", len(records),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, rn *run.Run) error {
	completedAt := ""
	if rn.CompletedAt != nil {
		completedAt = rn.CompletedAt.UTC().Format(time.RFC3339)
	}

	rows := [][]any{
		{"Run ID", rn.ID.String()},
		{"Status", string(rn.Status)},
		{"Budget", rn.BudgetID},
		{"Fragments", rn.FragmentCount},
		{"Orders", rn.OrderCount},
		{"Invoices", rn.InvoiceCount},
		{"Matches", rn.MatchCount},
		{"Ambiguous", rn.AmbiguousCount},
		{"Tips", rn.TipCount},
		{"Failed Orders", strings.Join(rn.FailedOrders, ", ")},
		{"Failure Reason", string(rn.FailureReason)},
		{"Created", rn.CreatedAt.UTC().Format(time.RFC3339)},
		{"Completed", completedAt},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SetColWidth(summarySheet, "A", "A", 18)
}

func writeInvoices(f *excelize.File, records []*invoice.Record) error {
	if err := f.SetSheetRow(invoicesSheet, "A1", &invoiceHeaders); err != nil {
		return err
	}

	for i, rec := range records {
		settled := ""
		if rec.SettlementDate != nil {
			settled = rec.SettlementDate.Format(dateLayout)
		}
		row := []any{
			rec.OrderID,
			strings.Join(rec.ItemNames, ", "),
			rec.PreTaxTotal,
			rec.TaxTotal,
			rec.TaxRate,
			rec.ChargedAmount,
			settled,
			rec.LedgerEntryID,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(invoicesSheet, cell, &row); err != nil {
			return err
		}
	}

	_ = f.SetColWidth(invoicesSheet, "A", "A", 22)
	_ = f.SetColWidth(invoicesSheet, "B", "B", 60)
	_ = f.SetColWidth(invoicesSheet, "C", "F", 14)
	_ = f.SetColWidth(invoicesSheet, "G", "H", 18)
	return nil
}
