package reconcile

import (
	"sort"
	"time"

	"github.com/amazon-ynab-reconciler/internal/domain/invoice"
	"github.com/amazon-ynab-reconciler/internal/domain/ledger"
	"github.com/amazon-ynab-reconciler/internal/domain/match"
)

// MatchOptions holds the matching predicates' parameters
type MatchOptions struct {
	AmountScale int64 // ledger units per currency unit
	LowerDays   int   // inclusive
	UpperDays   int   // inclusive
}

// DefaultMatchOptions accepts ledger entries dated zero to five days after
// settlement, with ledger amounts in milliunits
func DefaultMatchOptions() MatchOptions {
	return MatchOptions{AmountScale: 1000, LowerDays: 0, UpperDays: 5}
}

// Match returns every (invoice, ledger entry) pair that satisfies both the
// exact-amount predicate and the date-window predicate. The two candidate
// sets are computed independently over all combinations and intersected.
// Pairs are ordered by order id, then ledger entry id.
func Match(invoices map[string]*invoice.Invoice, entries map[string]*ledger.Entry, opts MatchOptions) []match.Pair {
	if opts.AmountScale <= 0 {
		opts.AmountScale = DefaultMatchOptions().AmountScale
	}

	orderIDs := sortedKeys(invoices)
	entryIDs := sortedKeys(entries)

	amountCandidates := make(map[match.Pair]struct{})
	var dateCandidates []match.Pair
	for _, orderID := range orderIDs {
		inv := invoices[orderID]
		for _, entryID := range entryIDs {
			entry := entries[entryID]
			pair := match.Pair{InvoiceOrderID: orderID, LedgerEntryID: entryID}
			if amountMatches(inv, entry, opts) {
				amountCandidates[pair] = struct{}{}
			}
			if dateMatches(inv, entry, opts) {
				dateCandidates = append(dateCandidates, pair)
			}
		}
	}

	pairs := []match.Pair{}
	for _, pair := range dateCandidates {
		if _, ok := amountCandidates[pair]; ok {
			pairs = append(pairs, pair)
		}
	}
	return pairs
}

func amountMatches(inv *invoice.Invoice, entry *ledger.Entry, opts MatchOptions) bool {
	if inv == nil || entry == nil || inv.ChargedAmount == nil {
		return false
	}
	return entry.ScaledAmount(opts.AmountScale).Equal(*inv.ChargedAmount)
}

func dateMatches(inv *invoice.Invoice, entry *ledger.Entry, opts MatchOptions) bool {
	if inv == nil || entry == nil || inv.SettlementDate == nil || entry.Date == nil {
		return false
	}
	delta := daysBetween(*inv.SettlementDate, *entry.Date)
	return delta >= opts.LowerDays && delta <= opts.UpperDays
}

// daysBetween counts calendar days from a to b
func daysBetween(a, b time.Time) int {
	return int(calendarDay(b).Sub(calendarDay(a)).Hours() / 24)
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Resolve classifies every invoice by the pairs it appears in
func Resolve(pairs []match.Pair, invoices map[string]*invoice.Invoice) []match.Resolution {
	byOrder := make(map[string][]string)
	for _, pair := range pairs {
		byOrder[pair.InvoiceOrderID] = append(byOrder[pair.InvoiceOrderID], pair.LedgerEntryID)
	}

	resolutions := make([]match.Resolution, 0, len(invoices))
	for _, orderID := range sortedKeys(invoices) {
		resolutions = append(resolutions, match.NewResolution(orderID, byOrder[orderID]))
	}
	return resolutions
}

// ContestedEntries maps each ledger entry claimed by more than one invoice to
// the claiming order ids
func ContestedEntries(pairs []match.Pair) map[string][]string {
	claims := make(map[string][]string)
	for _, pair := range pairs {
		claims[pair.LedgerEntryID] = append(claims[pair.LedgerEntryID], pair.InvoiceOrderID)
	}
	for entryID, orderIDs := range claims {
		if len(orderIDs) < 2 {
			delete(claims, entryID)
		}
	}
	return claims
}

// ConfidentPairs keeps the pairs whose invoice matched exactly one entry and
// whose entry was matched by exactly one invoice
func ConfidentPairs(pairs []match.Pair) []match.Pair {
	perOrder := make(map[string]int)
	perEntry := make(map[string]int)
	for _, pair := range pairs {
		perOrder[pair.InvoiceOrderID]++
		perEntry[pair.LedgerEntryID]++
	}

	confident := []match.Pair{}
	for _, pair := range pairs {
		if perOrder[pair.InvoiceOrderID] == 1 && perEntry[pair.LedgerEntryID] == 1 {
			confident = append(confident, pair)
		}
	}
	return confident
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
