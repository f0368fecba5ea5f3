package invoice

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Fields that must be present on every invoice
const (
	FieldPreTaxTotal = "pre_tax_total"
	FieldTaxTotal    = "tax_total"
)

// ErrRequiredFieldMissing is matched by every RequiredFieldMissingError
var ErrRequiredFieldMissing = errors.New("required invoice field missing")

// LineItem is one purchased item. Amount is unit price times quantity.
type LineItem struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
}

// Invoice is the structured view of one order's invoice document
type Invoice struct {
	OrderID        string           `json:"order_id"`
	Items          []LineItem       `json:"items"`
	ItemNames      []string         `json:"item_names"`
	PreTaxTotal    *decimal.Decimal `json:"pre_tax_total,omitempty"`
	TaxTotal       *decimal.Decimal `json:"tax_total,omitempty"`
	TaxRate        *decimal.Decimal `json:"tax_rate,omitempty"`
	SettlementDate *time.Time       `json:"settlement_date,omitempty"`
	ChargedAmount  *decimal.Decimal `json:"charged_amount,omitempty"`
}

// DeriveTaxRate sets TaxRate to TaxTotal/PreTaxTotal when both are known
// and the pre-tax total is non-zero.
func (inv *Invoice) DeriveTaxRate() {
	inv.TaxRate = nil
	if inv.PreTaxTotal == nil || inv.TaxTotal == nil || inv.PreTaxTotal.IsZero() {
		return
	}
	rate := inv.TaxTotal.Div(*inv.PreTaxTotal)
	inv.TaxRate = &rate
}

// RequiredFieldMissingError aborts extraction of a single invoice
type RequiredFieldMissingError struct {
	OrderID string
	Field   string
	Anchor  string
}

func (e *RequiredFieldMissingError) Error() string {
	return fmt.Sprintf("invoice %s: required field %s missing (anchor %q)", e.OrderID, e.Field, e.Anchor)
}

// Is implements the errors.Is interface for RequiredFieldMissingError
func (e *RequiredFieldMissingError) Is(target error) bool {
	return target == ErrRequiredFieldMissing
}
