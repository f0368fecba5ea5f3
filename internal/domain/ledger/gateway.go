package ledger

import (
	"context"
	"time"
)

// Budget identifies one budget in the ledger service
type Budget struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Gateway is the budgeting-ledger collaborator
type Gateway interface {
	ListBudgets(ctx context.Context) ([]Budget, error)
	ListTransactions(ctx context.Context, budgetID string, since time.Time) ([]*Entry, error)
	BulkPatch(ctx context.Context, budgetID string, payloads []PatchPayload) error
}

// ErrBudgetNotFound indicates the configured budget is not available, or
// that no budget was configured while several exist
type ErrBudgetNotFound struct {
	BudgetID string
}

func (e ErrBudgetNotFound) Error() string {
	if e.BudgetID == "" {
		return "budget not configured and more than one budget available"
	}
	return "budget not found: " + e.BudgetID
}

// Is implements the errors.Is interface for ErrBudgetNotFound
func (e ErrBudgetNotFound) Is(target error) bool {
	_, ok := target.(ErrBudgetNotFound)
	return ok
}

// ResolveBudget picks the budget to reconcile against: the configured one
// when set, otherwise the only available one.
func ResolveBudget(budgets []Budget, configured string) (string, error) {
	if configured != "" {
		for _, b := range budgets {
			if b.ID == configured {
				return b.ID, nil
			}
		}
		return "", ErrBudgetNotFound{BudgetID: configured}
	}
	if len(budgets) == 1 {
		return budgets[0].ID, nil
	}
	return "", ErrBudgetNotFound{}
}
