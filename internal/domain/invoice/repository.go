package invoice

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Record is the archived form of an extracted invoice. Amounts are kept as
// decimal strings so they round-trip through BSON without loss.
type Record struct {
	RunID          uuid.UUID    `json:"run_id" bson:"run_id"`
	OrderID        string       `json:"order_id" bson:"order_id"`
	Items          []RecordItem `json:"items" bson:"items"`
	ItemNames      []string     `json:"item_names" bson:"item_names"`
	PreTaxTotal    string       `json:"pre_tax_total,omitempty" bson:"pre_tax_total,omitempty"`
	TaxTotal       string       `json:"tax_total,omitempty" bson:"tax_total,omitempty"`
	TaxRate        string       `json:"tax_rate,omitempty" bson:"tax_rate,omitempty"`
	ChargedAmount  string       `json:"charged_amount,omitempty" bson:"charged_amount,omitempty"`
	SettlementDate *time.Time   `json:"settlement_date,omitempty" bson:"settlement_date,omitempty"`
	LedgerEntryID  string       `json:"ledger_entry_id,omitempty" bson:"ledger_entry_id,omitempty"`
	ArchivedAt     time.Time    `json:"archived_at" bson:"archived_at"`
}

// RecordItem is the archived form of a LineItem
type RecordItem struct {
	Name      string `json:"name" bson:"name"`
	Quantity  int    `json:"quantity" bson:"quantity"`
	UnitPrice string `json:"unit_price" bson:"unit_price"`
	Amount    string `json:"amount" bson:"amount"`
}

// NewRecord converts an invoice into its archived form
func NewRecord(runID uuid.UUID, inv *Invoice, ledgerEntryID string) *Record {
	rec := &Record{
		RunID:          runID,
		OrderID:        inv.OrderID,
		Items:          make([]RecordItem, 0, len(inv.Items)),
		ItemNames:      inv.ItemNames,
		PreTaxTotal:    decimalString(inv.PreTaxTotal),
		TaxTotal:       decimalString(inv.TaxTotal),
		TaxRate:        decimalString(inv.TaxRate),
		ChargedAmount:  decimalString(inv.ChargedAmount),
		SettlementDate: inv.SettlementDate,
		LedgerEntryID:  ledgerEntryID,
		ArchivedAt:     time.Now().UTC(),
	}
	for _, item := range inv.Items {
		rec.Items = append(rec.Items, RecordItem{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.String(),
			Amount:    item.Amount.String(),
		})
	}
	return rec
}

// Invoice converts the archived form back into an Invoice
func (r *Record) Invoice() (*Invoice, error) {
	inv := &Invoice{
		OrderID:        r.OrderID,
		Items:          make([]LineItem, 0, len(r.Items)),
		ItemNames:      r.ItemNames,
		SettlementDate: r.SettlementDate,
	}
	var err error
	if inv.PreTaxTotal, err = parseOptional(r.PreTaxTotal); err != nil {
		return nil, err
	}
	if inv.TaxTotal, err = parseOptional(r.TaxTotal); err != nil {
		return nil, err
	}
	if inv.TaxRate, err = parseOptional(r.TaxRate); err != nil {
		return nil, err
	}
	if inv.ChargedAmount, err = parseOptional(r.ChargedAmount); err != nil {
		return nil, err
	}
	for _, item := range r.Items {
		price, err := decimal.NewFromString(item.UnitPrice)
		if err != nil {
			return nil, err
		}
		amount, err := decimal.NewFromString(item.Amount)
		if err != nil {
			return nil, err
		}
		inv.Items = append(inv.Items, LineItem{Name: item.Name, Quantity: item.Quantity, UnitPrice: price, Amount: amount})
	}
	return inv, nil
}

// Repository archives extracted invoices
type Repository interface {
	Save(ctx context.Context, record *Record) error
	SaveMany(ctx context.Context, records []*Record) error
	GetLatestByOrderID(ctx context.Context, orderID string) (*Record, error)
	GetByRunID(ctx context.Context, runID uuid.UUID) ([]*Record, error)
}

// ErrRecordNotFound indicates no archived invoice for an order
type ErrRecordNotFound struct {
	OrderID string
}

func (e ErrRecordNotFound) Error() string {
	return "archived invoice not found: " + e.OrderID
}

// Is implements the errors.Is interface for ErrRecordNotFound
func (e ErrRecordNotFound) Is(target error) bool {
	t, ok := target.(ErrRecordNotFound)
	if !ok {
		return false
	}
	// An empty OrderID on the target matches any ErrRecordNotFound
	return t.OrderID == "" || t.OrderID == e.OrderID
}

func decimalString(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func parseOptional(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
