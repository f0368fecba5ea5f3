package order

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// SettlementMethod names the instrument an order was paid with
type SettlementMethod string

const (
	SettlementCreditCard SettlementMethod = "Credit Card"
	SettlementGiftCard   SettlementMethod = "Gift Card"
)

// ErrMalformedFragment is matched by every MalformedFragmentError
var ErrMalformedFragment = errors.New("malformed transaction fragment")

// Settlement is the normalized view of one storefront order: how much was
// charged to each settlement method.
type Settlement struct {
	OrderID           string                               `json:"order_id"`
	SettlementAmounts map[SettlementMethod]decimal.Decimal `json:"settlement_amounts"`
	IsGratuity        bool                                 `json:"is_gratuity"`
}

// NewSettlement creates an empty settlement for the given order
func NewSettlement(orderID string) *Settlement {
	return &Settlement{
		OrderID:           orderID,
		SettlementAmounts: make(map[SettlementMethod]decimal.Decimal),
	}
}

// Set records the amount charged to a method, replacing any earlier value
func (s *Settlement) Set(method SettlementMethod, amount decimal.Decimal) {
	if s.SettlementAmounts == nil {
		s.SettlementAmounts = make(map[SettlementMethod]decimal.Decimal)
	}
	s.SettlementAmounts[method] = amount
}

// Amount returns the amount charged to method, if any
func (s *Settlement) Amount(method SettlementMethod) (decimal.Decimal, bool) {
	amount, ok := s.SettlementAmounts[method]
	return amount, ok
}

// Total sums the amounts across all settlement methods
func (s *Settlement) Total() decimal.Decimal {
	total := decimal.Zero
	for _, amount := range s.SettlementAmounts {
		total = total.Add(amount)
	}
	return total
}

// MalformedFragmentError reports a raw fragment that could not be normalized
type MalformedFragmentError struct {
	Index    int
	Fragment string
	Reason   string
}

func (e *MalformedFragmentError) Error() string {
	return fmt.Sprintf("fragment %d: %s: %q", e.Index, e.Reason, e.Fragment)
}

// Is implements the errors.Is interface for MalformedFragmentError
func (e *MalformedFragmentError) Is(target error) bool {
	return target == ErrMalformedFragment
}
