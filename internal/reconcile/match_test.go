package reconcile

import (
	"testing"
	"time"

	"github.com/amazon-ynab-reconciler/internal/domain/invoice"
	"github.com/amazon-ynab-reconciler/internal/domain/ledger"
	"github.com/amazon-ynab-reconciler/internal/domain/match"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	invoices := map[string]*invoice.Invoice{
		"o1": {OrderID: "o1", ChargedAmount: decPtr("12.34"), SettlementDate: datePtr(2024, time.January, 1)},
	}

	testCases := []struct {
		name     string
		entry    *ledger.Entry
		expected []match.Pair
	}{
		{
			name:     "AmountAndDateWithinWindow",
			entry:    &ledger.Entry{ID: "l1", Amount: 12340, Date: datePtr(2024, time.January, 3)},
			expected: []match.Pair{{InvoiceOrderID: "o1", LedgerEntryID: "l1"}},
		},
		{
			name:     "SameDay",
			entry:    &ledger.Entry{ID: "l1", Amount: 12340, Date: datePtr(2024, time.January, 1)},
			expected: []match.Pair{{InvoiceOrderID: "o1", LedgerEntryID: "l1"}},
		},
		{
			name:     "UpperBoundInclusive",
			entry:    &ledger.Entry{ID: "l1", Amount: 12340, Date: datePtr(2024, time.January, 6)},
			expected: []match.Pair{{InvoiceOrderID: "o1", LedgerEntryID: "l1"}},
		},
		{
			name:     "DateOutsideWindow",
			entry:    &ledger.Entry{ID: "l1", Amount: 12340, Date: datePtr(2024, time.January, 10)},
			expected: []match.Pair{},
		},
		{
			name:     "LedgerBeforeSettlement",
			entry:    &ledger.Entry{ID: "l1", Amount: 12340, Date: datePtr(2023, time.December, 31)},
			expected: []match.Pair{},
		},
		{
			name:     "AmountOnly",
			entry:    &ledger.Entry{ID: "l1", Amount: 12340},
			expected: []match.Pair{},
		},
		{
			name:     "DateOnly",
			entry:    &ledger.Entry{ID: "l1", Amount: 12350, Date: datePtr(2024, time.January, 2)},
			expected: []match.Pair{},
		},
		{
			name:     "SignMatters",
			entry:    &ledger.Entry{ID: "l1", Amount: -12340, Date: datePtr(2024, time.January, 2)},
			expected: []match.Pair{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pairs := Match(invoices, map[string]*ledger.Entry{tc.entry.ID: tc.entry}, DefaultMatchOptions())
			assert.Equal(t, tc.expected, pairs)
		})
	}
}

func TestMatch_IgnoresTimeOfDay(t *testing.T) {
	settled := time.Date(2024, time.January, 1, 23, 30, 0, 0, time.UTC)
	booked := time.Date(2024, time.January, 6, 1, 0, 0, 0, time.UTC)
	invoices := map[string]*invoice.Invoice{
		"o1": {OrderID: "o1", ChargedAmount: decPtr("1"), SettlementDate: &settled},
	}
	entries := map[string]*ledger.Entry{"l1": {ID: "l1", Amount: 1000, Date: &booked}}

	assert.Len(t, Match(invoices, entries, DefaultMatchOptions()), 1)
}

func TestMatch_CustomOptions(t *testing.T) {
	invoices := map[string]*invoice.Invoice{
		"o1": {OrderID: "o1", ChargedAmount: decPtr("12.34"), SettlementDate: datePtr(2024, time.January, 5)},
	}
	entries := map[string]*ledger.Entry{
		"l1": {ID: "l1", Amount: 1234, Date: datePtr(2024, time.January, 3)},
	}

	assert.Empty(t, Match(invoices, entries, DefaultMatchOptions()))
	assert.Len(t, Match(invoices, entries, MatchOptions{AmountScale: 100, LowerDays: -2, UpperDays: 0}), 1)
}

func TestMatch_AmbiguityIsKept(t *testing.T) {
	invoices := map[string]*invoice.Invoice{
		"o1": {OrderID: "o1", ChargedAmount: decPtr("10"), SettlementDate: datePtr(2024, time.May, 1)},
		"o2": {OrderID: "o2", ChargedAmount: decPtr("10"), SettlementDate: datePtr(2024, time.May, 2)},
		"o3": {OrderID: "o3", ChargedAmount: decPtr("20"), SettlementDate: datePtr(2024, time.May, 1)},
		"o4": {OrderID: "o4", ChargedAmount: decPtr("99")},
	}
	entries := map[string]*ledger.Entry{
		"lb": {ID: "lb", Amount: 10000, Date: datePtr(2024, time.May, 3)},
		"lc": {ID: "lc", Amount: 20000, Date: datePtr(2024, time.May, 2)},
		"ld": {ID: "ld", Amount: 20000, Date: datePtr(2024, time.May, 4)},
	}

	pairs := Match(invoices, entries, DefaultMatchOptions())
	assert.Equal(t, []match.Pair{
		{InvoiceOrderID: "o1", LedgerEntryID: "lb"},
		{InvoiceOrderID: "o2", LedgerEntryID: "lb"},
		{InvoiceOrderID: "o3", LedgerEntryID: "lc"},
		{InvoiceOrderID: "o3", LedgerEntryID: "ld"},
	}, pairs)

	resolutions := Resolve(pairs, invoices)
	require.Len(t, resolutions, 4)
	assert.Equal(t, match.KindUnique, resolutions[0].Kind)
	assert.Equal(t, match.KindUnique, resolutions[1].Kind)
	assert.Equal(t, match.KindAmbiguous, resolutions[2].Kind)
	assert.Equal(t, []string{"lc", "ld"}, resolutions[2].LedgerEntryIDs)
	assert.Equal(t, match.KindNone, resolutions[3].Kind)

	assert.Equal(t, map[string][]string{"lb": {"o1", "o2"}}, ContestedEntries(pairs))
	assert.Empty(t, ConfidentPairs(pairs))
}

func TestConfidentPairs(t *testing.T) {
	pairs := []match.Pair{
		{InvoiceOrderID: "o1", LedgerEntryID: "l1"},
		{InvoiceOrderID: "o2", LedgerEntryID: "l2"},
		{InvoiceOrderID: "o2", LedgerEntryID: "l3"},
		{InvoiceOrderID: "o4", LedgerEntryID: "l4"},
		{InvoiceOrderID: "o5", LedgerEntryID: "l4"},
	}
	assert.Equal(t, []match.Pair{{InvoiceOrderID: "o1", LedgerEntryID: "l1"}}, ConfidentPairs(pairs))
}
