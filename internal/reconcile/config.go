package reconcile

import (
	"github.com/amazon-ynab-reconciler/internal/config"
	"github.com/amazon-ynab-reconciler/internal/domain/order"
)

// EngineConfigFrom builds the engine configuration from application settings
func EngineConfigFrom(cfg *config.Config) EngineConfig {
	return EngineConfig{
		Extractor: ExtractorOptions{
			ShortItems:       cfg.Reconcile.ShortItems,
			WordsPerItem:     cfg.Reconcile.WordsPerItem,
			SettlementMethod: order.SettlementMethod(cfg.Reconcile.SettlementMethod),
			DatePolicy:       DatePolicy(cfg.Reconcile.DatePolicy),
		},
		Match: MatchOptions{
			AmountScale: cfg.Reconcile.AmountScale,
			LowerDays:   cfg.Reconcile.DateWindowLower,
			UpperDays:   cfg.Reconcile.DateWindowUpper,
		},
		PayeeID:     cfg.YNAB.PayeeID,
		PayeeName:   cfg.YNAB.PayeeName,
		Concurrency: cfg.Reconcile.ExtractConcurrency,
	}
}
