// Package reconcile implements the order reconciliation engine: it turns raw
// storefront transaction fragments and invoice documents into structured
// invoices, pairs them with budgeting-ledger entries and shapes the memo
// updates for the confident pairs.
package reconcile

import (
	"strings"

	"github.com/amazon-ynab-reconciler/internal/docutil"
	"github.com/amazon-ynab-reconciler/internal/domain/order"
)

const gratuityMarker = "tips"

// Normalize collapses raw transaction fragments into one settlement per
// order. Gratuity fragments are dropped. Malformed fragments are skipped and
// returned as *order.MalformedFragmentError values.
func Normalize(fragments []string) (map[string]*order.Settlement, []error) {
	settlements := make(map[string]*order.Settlement)
	var errs []error

	for i, fragment := range fragments {
		lines := splitLines(fragment)
		if len(lines) < 3 {
			errs = append(errs, &order.MalformedFragmentError{Index: i, Fragment: fragment, Reason: "expected at least 3 lines"})
			continue
		}
		if isGratuity(lines[len(lines)-1]) {
			continue
		}

		amount, err := docutil.ParseAmount(lines[1])
		if err != nil {
			errs = append(errs, &order.MalformedFragmentError{Index: i, Fragment: fragment, Reason: "unparsable amount"})
			continue
		}

		orderID := orderIDFrom(lines[2])
		if orderID == "" {
			errs = append(errs, &order.MalformedFragmentError{Index: i, Fragment: fragment, Reason: "missing order id"})
			continue
		}

		s, ok := settlements[orderID]
		if !ok {
			s = order.NewSettlement(orderID)
			settlements[orderID] = s
		}
		s.Set(methodFrom(lines[0]), amount)
	}

	return settlements, errs
}

func splitLines(fragment string) []string {
	raw := strings.Split(strings.TrimSpace(fragment), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		lines = append(lines, strings.TrimSpace(line))
	}
	if len(lines) == 1 && lines[0] == "" {
		return nil
	}
	return lines
}

func methodFrom(line string) order.SettlementMethod {
	if strings.Contains(line, string(order.SettlementGiftCard)) {
		return order.SettlementGiftCard
	}
	return order.SettlementCreditCard
}

func orderIDFrom(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimLeft(fields[len(fields)-1], "#")
}

func isGratuity(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	return strings.EqualFold(fields[len(fields)-1], gratuityMarker)
}
