package match

// Pair links an invoice to a ledger entry satisfying both match predicates
type Pair struct {
	InvoiceOrderID string `json:"invoice_order_id"`
	LedgerEntryID  string `json:"ledger_entry_id"`
}

// Kind classifies how an invoice resolved against the ledger
type Kind string

const (
	KindNone      Kind = "NO_MATCH"
	KindUnique    Kind = "UNIQUE_MATCH"
	KindAmbiguous Kind = "AMBIGUOUS_MATCHES"
)

// Resolution is the per-invoice outcome of matching
type Resolution struct {
	OrderID        string   `json:"order_id"`
	Kind           Kind     `json:"kind"`
	LedgerEntryIDs []string `json:"ledger_entry_ids,omitempty"`
}

// LedgerEntryID returns the matched entry of a unique resolution
func (r Resolution) LedgerEntryID() (string, bool) {
	if r.Kind != KindUnique || len(r.LedgerEntryIDs) != 1 {
		return "", false
	}
	return r.LedgerEntryIDs[0], true
}

// NewResolution classifies the ledger entries paired with one invoice
func NewResolution(orderID string, ledgerIDs []string) Resolution {
	r := Resolution{OrderID: orderID, LedgerEntryIDs: ledgerIDs}
	switch len(ledgerIDs) {
	case 0:
		r.Kind = KindNone
		r.LedgerEntryIDs = nil
	case 1:
		r.Kind = KindUnique
	default:
		r.Kind = KindAmbiguous
	}
	return r
}
