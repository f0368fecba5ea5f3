package components

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amazon-ynab-reconciler/internal/domain/ledger"
	"github.com/amazon-ynab-reconciler/internal/platform/ynab"
	"github.com/amazon-ynab-reconciler/internal/reconciliation_processor/service"
)

// LedgerFetcherImpl loads unreconciled storefront entries through the ledger gateway
type LedgerFetcherImpl struct {
	gateway  ledger.Gateway
	budgetID string
	daysBack int
	now      func() time.Time
	logger   *slog.Logger
}

func NewLedgerFetcher(gateway ledger.Gateway, budgetID string, daysBack int, logger *slog.Logger) *LedgerFetcherImpl {
	return &LedgerFetcherImpl{
		gateway:  gateway,
		budgetID: budgetID,
		daysBack: daysBack,
		now:      time.Now,
		logger:   logger,
	}
}

// Fetch resolves the budget and returns its entries split into purchases and tips
func (f *LedgerFetcherImpl) Fetch(ctx context.Context) (*service.LedgerSnapshot, error) {
	budgets, err := f.gateway.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}

	budgetID, err := ledger.ResolveBudget(budgets, f.budgetID)
	if err != nil {
		f.logger.Error("Failed to resolve budget", "configured_budget_id", f.budgetID, "available", len(budgets), "error", err)
		return nil, err
	}

	since := f.now().AddDate(0, 0, -f.daysBack)
	entries, err := f.gateway.ListTransactions(ctx, budgetID, since)
	if err != nil {
		return nil, err
	}

	purchases, tips := ynab.PartitionEntries(entries)
	f.logger.Info("Fetched ledger entries",
		"budget_id", budgetID,
		"since", since.Format("2006-01-02"),
		"fetched", len(entries),
		"purchases", len(purchases),
		"tips", len(tips),
	)

	return &service.LedgerSnapshot{
		BudgetID: budgetID,
		Entries:  purchases,
		Tips:     tips,
	}, nil
}
