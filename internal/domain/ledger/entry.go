package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one transaction in the budgeting ledger
type Entry struct {
	ID     string     `json:"id"`
	Amount int64      `json:"amount"` // milliunits
	Date   *time.Time `json:"date,omitempty"`
	Payee  string     `json:"payee_name"`
	Memo   *string    `json:"memo,omitempty"`
}

// ScaledAmount converts the milliunit amount into currency units
func (e *Entry) ScaledAmount(scale int64) decimal.Decimal {
	return decimal.New(e.Amount, 0).Div(decimal.New(scale, 0))
}

// HasMemo reports whether the entry already carries a non-empty memo
func (e *Entry) HasMemo() bool {
	return e.Memo != nil && *e.Memo != ""
}

// PatchPayload is the memo/payee update sent for one ledger entry
type PatchPayload struct {
	ID        string `json:"id"`
	Memo      string `json:"memo"`
	PayeeID   string `json:"payee_id,omitempty"`
	PayeeName string `json:"payee_name,omitempty"`
}
