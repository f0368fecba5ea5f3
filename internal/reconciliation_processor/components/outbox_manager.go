package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amazon-ynab-reconciler/internal/domain/ledger"
	"github.com/amazon-ynab-reconciler/internal/domain/outbox"
	"github.com/amazon-ynab-reconciler/internal/domain/shared"
	"github.com/amazon-ynab-reconciler/internal/reconcile"
	"github.com/amazon-ynab-reconciler/internal/reconciliation_processor/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type OutboxManagerImpl struct {
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

func NewOutboxManager(outboxRepo outbox.Repository, logger *slog.Logger) service.OutboxManager {
	return &OutboxManagerImpl{
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// EnqueuePatches stores the run's MATCH batch and, when non-empty, its TIP batch
func (m *OutboxManagerImpl) EnqueuePatches(ctx context.Context, tx pgx.Tx, runID uuid.UUID, budgetID string, result *reconcile.Result) error {
	outboxRepoTx := m.outboxRepo.WithTx(tx)

	batches := []struct {
		kind    shared.PatchKind
		patches []ledger.PatchPayload
	}{
		{shared.PatchKindMatch, result.MatchPatches},
		{shared.PatchKindTip, result.TipPatches},
	}

	for _, batch := range batches {
		if len(batch.patches) == 0 {
			continue
		}

		message, err := outbox.NewMessage(runID, budgetID, batch.kind, batch.patches)
		if err != nil {
			m.logger.Error("Failed to create outbox message (marshal payload)", "run_id", runID.String(), "kind", string(batch.kind), "error", err)
			return fmt.Errorf("failed to create %s outbox payload for run %s: %w", batch.kind, runID.String(), err)
		}

		if err := outboxRepoTx.Create(ctx, message); err != nil {
			m.logger.Error("Failed to create outbox message", "run_id", runID.String(), "kind", string(batch.kind), "error", err)
			return fmt.Errorf("failed to create %s outbox message for run %s: %w", batch.kind, runID.String(), err)
		}

		m.logger.Info("Outbox message created successfully",
			"run_id", runID.String(),
			"kind", string(batch.kind),
			"patches", len(batch.patches),
			"outbox_id", message.ID,
		)
	}

	return nil
}
