package reconcile

import (
	"strings"

	"github.com/amazon-ynab-reconciler/internal/docutil"
	"github.com/amazon-ynab-reconciler/internal/domain/invoice"
	"github.com/amazon-ynab-reconciler/internal/domain/ledger"
	"github.com/amazon-ynab-reconciler/internal/domain/match"
)

const (
	MemoSuffix      = " | AMAZON"
	MemoItemsMaxLen = 190
	TipMemo         = "Amazon Tip" + MemoSuffix
)

// BuildMemo joins item names and appends the storefront marker. The item
// part is cut to MemoItemsMaxLen characters.
func BuildMemo(itemNames []string) string {
	return docutil.Truncate(strings.Join(itemNames, " "), MemoItemsMaxLen) + MemoSuffix
}

// BuildPatches shapes one memo update per matched pair
func BuildPatches(pairs []match.Pair, invoices map[string]*invoice.Invoice, payeeID, payeeName string) []ledger.PatchPayload {
	patches := make([]ledger.PatchPayload, 0, len(pairs))
	for _, pair := range pairs {
		inv, ok := invoices[pair.InvoiceOrderID]
		if !ok {
			continue
		}
		patches = append(patches, ledger.PatchPayload{
			ID:        pair.LedgerEntryID,
			Memo:      BuildMemo(inv.ItemNames),
			PayeeID:   payeeID,
			PayeeName: payeeName,
		})
	}
	return patches
}

// BuildTipPatches shapes one memo update per gratuity ledger entry, ordered
// by entry id
func BuildTipPatches(tips map[string]*ledger.Entry, payeeID, payeeName string) []ledger.PatchPayload {
	patches := make([]ledger.PatchPayload, 0, len(tips))
	for _, id := range sortedKeys(tips) {
		patches = append(patches, ledger.PatchPayload{
			ID:        id,
			Memo:      TipMemo,
			PayeeID:   payeeID,
			PayeeName: payeeName,
		})
	}
	return patches
}
