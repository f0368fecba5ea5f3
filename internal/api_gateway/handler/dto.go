package handler

// CreateReconciliationRequest represents a request to reconcile storefront orders against the ledger
type CreateReconciliationRequest struct {
	Fragments      []string          `json:"fragments" binding:"required,min=1,dive,required"`
	Invoices       map[string]string `json:"invoices" binding:"required,min=1"` // order id -> invoice document
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
}

// MatchResponse is one confident invoice to ledger entry pairing
type MatchResponse struct {
	OrderID       string `json:"order_id"`
	LedgerEntryID string `json:"ledger_entry_id"`
}

// RunResponse represents a reconciliation run in API responses
type RunResponse struct {
	RunID          string          `json:"run_id"`
	Status         string          `json:"status"`
	BudgetID       string          `json:"budget_id,omitempty"`
	FragmentCount  int             `json:"fragment_count"`
	OrderCount     int             `json:"order_count"`
	InvoiceCount   int             `json:"invoice_count"`
	MatchCount     int             `json:"match_count"`
	AmbiguousCount int             `json:"ambiguous_count"`
	TipCount       int             `json:"tip_count"`
	Matches        []MatchResponse `json:"matches"`
	FailedOrders   []string        `json:"failed_orders"`
	FailureReason  string          `json:"failure_reason,omitempty"`
	CreatedAt      string          `json:"created_at"`
	CompletedAt    string          `json:"completed_at,omitempty"`
}

// LineItemResponse represents one invoice line item
type LineItemResponse struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Amount    string `json:"amount"`
}

// InvoiceResponse represents an archived invoice in API responses
type InvoiceResponse struct {
	OrderID        string             `json:"order_id"`
	RunID          string             `json:"run_id"`
	Items          []LineItemResponse `json:"items"`
	ItemNames      []string           `json:"item_names"`
	PreTaxTotal    string             `json:"pre_tax_total,omitempty"`
	TaxTotal       string             `json:"tax_total,omitempty"`
	TaxRate        string             `json:"tax_rate,omitempty"`
	ChargedAmount  string             `json:"charged_amount,omitempty"`
	SettlementDate string             `json:"settlement_date,omitempty"`
	LedgerEntryID  string             `json:"ledger_entry_id,omitempty"`
	ArchivedAt     string             `json:"archived_at"`
}

// PreviewEntry is a ledger entry supplied to a preview run
type PreviewEntry struct {
	ID        string  `json:"id" binding:"required"`
	Amount    int64   `json:"amount"` // milliunits
	Date      string  `json:"date,omitempty" binding:"omitempty,datetime=2006-01-02"`
	PayeeName string  `json:"payee_name"`
	Memo      *string `json:"memo,omitempty"`
}

// PreviewRequest represents a side-effect free reconciliation request
type PreviewRequest struct {
	Fragments []string          `json:"fragments" binding:"required,min=1"`
	Invoices  map[string]string `json:"invoices"`
	Entries   []PreviewEntry    `json:"entries" binding:"dive"`
}

// ResolutionResponse is the per-invoice matching outcome
type ResolutionResponse struct {
	OrderID        string   `json:"order_id"`
	Kind           string   `json:"kind"`
	LedgerEntryIDs []string `json:"ledger_entry_ids,omitempty"`
}

// PatchResponse is one memo/payee update that a run would send
type PatchResponse struct {
	ID        string `json:"id"`
	Memo      string `json:"memo"`
	PayeeID   string `json:"payee_id,omitempty"`
	PayeeName string `json:"payee_name,omitempty"`
}

// PreviewResponse represents the outcome of a preview run
type PreviewResponse struct {
	OrderCount         int                  `json:"order_count"`
	InvoiceCount       int                  `json:"invoice_count"`
	MalformedFragments []string             `json:"malformed_fragments"`
	FailedOrders       map[string]string    `json:"failed_orders"`
	MissingDocuments   []string             `json:"missing_documents"`
	Resolutions        []ResolutionResponse `json:"resolutions"`
	ContestedEntries   map[string][]string  `json:"contested_entries"`
	MatchPatches       []PatchResponse      `json:"match_patches"`
	TipPatches         []PatchResponse      `json:"tip_patches"`
}
