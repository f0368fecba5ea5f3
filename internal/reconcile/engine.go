package reconcile

import (
	"context"
	"fmt"
	"sync"

	"github.com/amazon-ynab-reconciler/internal/domain/invoice"
	"github.com/amazon-ynab-reconciler/internal/domain/ledger"
	"github.com/amazon-ynab-reconciler/internal/domain/match"
	"github.com/amazon-ynab-reconciler/internal/domain/order"
	"github.com/panjf2000/ants/v2"
	"github.com/shopspring/decimal"
)

// EngineConfig configures a reconciliation Engine
type EngineConfig struct {
	Extractor   ExtractorOptions
	Match       MatchOptions
	PayeeID     string
	PayeeName   string
	Concurrency int // parallel invoice extractions
}

// Input is everything one run reconciles. Entries and Tips are the ledger
// entries already split by the ledger collaborator.
type Input struct {
	Fragments []string
	Documents map[string]string // order id -> raw invoice document
	Entries   map[string]*ledger.Entry
	Tips      map[string]*ledger.Entry
}

// Result is the outcome of one run
type Result struct {
	Settlements        map[string]*order.Settlement
	Invoices           map[string]*invoice.Invoice
	MalformedFragments []error
	FailedOrders       map[string]error
	MissingDocuments   []string
	Pairs              []match.Pair
	Resolutions        []match.Resolution
	ContestedEntries   map[string][]string
	ConfidentPairs     []match.Pair
	MatchPatches       []ledger.PatchPayload
	TipPatches         []ledger.PatchPayload
}

// LedgerEntryFor returns the ledger entry confidently paired with an order
func (r *Result) LedgerEntryFor(orderID string) string {
	for _, pair := range r.ConfidentPairs {
		if pair.InvoiceOrderID == orderID {
			return pair.LedgerEntryID
		}
	}
	return ""
}

// AmbiguousCount counts invoices matching more than one entry plus entries
// claimed by more than one invoice
func (r *Result) AmbiguousCount() int {
	n := len(r.ContestedEntries)
	for _, res := range r.Resolutions {
		if res.Kind == match.KindAmbiguous {
			n++
		}
	}
	return n
}

// Engine runs the normalize, extract, match and build steps for one run
type Engine struct {
	cfg       EngineConfig
	extractor *Extractor
	reporter  Reporter
}

// NewEngine creates an Engine. A nil reporter discards progress.
func NewEngine(cfg EngineConfig, reporter Reporter) *Engine {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &Engine{
		cfg:       cfg,
		extractor: NewExtractor(cfg.Extractor),
		reporter:  reporter,
	}
}

// Run reconciles one input. Per-fragment and per-order failures are
// recorded on the result; only cancellation and pool failures are returned.
func (e *Engine) Run(ctx context.Context, in Input) (*Result, error) {
	settlements, malformed := Normalize(in.Fragments)
	e.reporter.Normalized(len(settlements), malformed)

	invoices, failed, missing, err := e.extractAll(ctx, settlements, in.Documents)
	if err != nil {
		return nil, err
	}

	pairs := Match(invoices, in.Entries, e.cfg.Match)
	resolutions := Resolve(pairs, invoices)
	e.reporter.Matched(pairs, resolutions)

	confident := ConfidentPairs(pairs)
	result := &Result{
		Settlements:        settlements,
		Invoices:           invoices,
		MalformedFragments: malformed,
		FailedOrders:       failed,
		MissingDocuments:   missing,
		Pairs:              pairs,
		Resolutions:        resolutions,
		ContestedEntries:   ContestedEntries(pairs),
		ConfidentPairs:     confident,
		MatchPatches:       BuildPatches(confident, invoices, e.cfg.PayeeID, e.cfg.PayeeName),
		TipPatches:         BuildTipPatches(in.Tips, e.cfg.PayeeID, e.cfg.PayeeName),
	}
	e.reporter.Built(len(result.MatchPatches), len(result.TipPatches))

	return result, nil
}

type extraction struct {
	orderID string
	invoice *invoice.Invoice
	err     error
}

func (e *Engine) extractAll(ctx context.Context, settlements map[string]*order.Settlement, documents map[string]string) (map[string]*invoice.Invoice, map[string]error, []string, error) {
	var missing []string
	var jobs []extraction
	for _, orderID := range sortedKeys(settlements) {
		if settlements[orderID].IsGratuity {
			continue
		}
		if _, ok := documents[orderID]; !ok {
			missing = append(missing, orderID)
			e.reporter.DocumentMissing(orderID)
			continue
		}
		jobs = append(jobs, extraction{orderID: orderID})
	}

	pool, err := ants.NewPool(e.cfg.Concurrency)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create extraction pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i := range jobs {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, nil, nil, err
		}

		job := &jobs[i]
		charged := chargedAmount(settlements[job.orderID], e.cfg.Extractor.SettlementMethod)
		document := documents[job.orderID]

		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			job.invoice, job.err = e.extractor.Extract(job.orderID, document, charged)
		}); err != nil {
			wg.Done()
			job.err = fmt.Errorf("failed to submit extraction: %w", err)
		}
	}
	wg.Wait()

	invoices := make(map[string]*invoice.Invoice, len(jobs))
	failed := make(map[string]error)
	for _, job := range jobs {
		e.reporter.Extracted(job.orderID, job.err)
		if job.err != nil {
			failed[job.orderID] = job.err
			continue
		}
		invoices[job.orderID] = job.invoice
	}
	return invoices, failed, missing, nil
}

func chargedAmount(s *order.Settlement, method order.SettlementMethod) *decimal.Decimal {
	if method == "" {
		method = order.SettlementCreditCard
	}
	amount, ok := s.Amount(method)
	if !ok {
		return nil
	}
	return &amount
}

// SortedOrderIDs returns the order IDs of invoices in ascending order
func SortedOrderIDs(invoices map[string]*invoice.Invoice) []string {
	return sortedKeys(invoices)
}
