package reconcile

import (
	"log/slog"

	"github.com/amazon-ynab-reconciler/internal/domain/match"
)

// Reporter receives progress notifications from the Engine
type Reporter interface {
	Normalized(orders int, malformed []error)
	DocumentMissing(orderID string)
	Extracted(orderID string, err error)
	Matched(pairs []match.Pair, resolutions []match.Resolution)
	Built(matchPatches, tipPatches int)
}

// NopReporter discards every notification
type NopReporter struct{}

func (NopReporter) Normalized(int, []error) {}
func (NopReporter) DocumentMissing(string) {}
func (NopReporter) Extracted(string, error) {}
func (NopReporter) Matched([]match.Pair, []match.Resolution) {}
func (NopReporter) Built(int, int) {}

// LogReporter writes notifications to a structured logger
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter creates a Reporter backed by logger
func NewLogReporter(logger *slog.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

func (r *LogReporter) Normalized(orders int, malformed []error) {
	for _, err := range malformed {
		r.logger.Warn("Skipping malformed transaction fragment", "error", err)
	}
	r.logger.Info("Normalized transaction fragments", "orders", orders, "malformed", len(malformed))
}

func (r *LogReporter) DocumentMissing(orderID string) {
	r.logger.Warn("No invoice document for order", "order_id", orderID)
}

func (r *LogReporter) Extracted(orderID string, err error) {
	if err != nil {
		r.logger.Error("Failed to extract invoice", "order_id", orderID, "error", err)
		return
	}
	r.logger.Debug("Extracted invoice", "order_id", orderID)
}

func (r *LogReporter) Matched(pairs []match.Pair, resolutions []match.Resolution) {
	var unique, ambiguous, none int
	for _, res := range resolutions {
		switch res.Kind {
		case match.KindUnique:
			unique++
		case match.KindAmbiguous:
			ambiguous++
			r.logger.Warn("Invoice matches several ledger entries", "order_id", res.OrderID, "ledger_entry_ids", res.LedgerEntryIDs)
		default:
			none++
		}
	}
	r.logger.Info("Matched invoices to ledger entries", "pairs", len(pairs), "unique", unique, "ambiguous", ambiguous, "unmatched", none)
}

func (r *LogReporter) Built(matchPatches, tipPatches int) {
	r.logger.Info("Built ledger patches", "match_patches", matchPatches, "tip_patches", tipPatches)
}
