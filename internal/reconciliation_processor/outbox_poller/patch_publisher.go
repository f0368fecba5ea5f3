package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amazon-ynab-reconciler/internal/domain/ledger"
	"github.com/amazon-ynab-reconciler/internal/domain/outbox"
	"github.com/amazon-ynab-reconciler/internal/domain/shared"
)

// PatchPublisher sends one outbox patch batch to the ledger
type PatchPublisher interface {
	PublishPatches(ctx context.Context, message *outbox.Message) error
}

// PatchPublisherImpl implements PatchPublisher with a ledger.Gateway
type PatchPublisherImpl struct {
	outboxRepo outbox.Repository
	gateway    ledger.Gateway
	logger     *slog.Logger
}

// NewPatchPublisher creates a new publisher
func NewPatchPublisher(
	outboxRepo outbox.Repository,
	gateway ledger.Gateway,
	logger *slog.Logger,
) PatchPublisher {
	return &PatchPublisherImpl{
		outboxRepo: outboxRepo,
		gateway:    gateway,
		logger:     logger,
	}
}

// PublishPatches bulk-patches the batch and marks the message PROCESSED
func (p *PatchPublisherImpl) PublishPatches(ctx context.Context, message *outbox.Message) error {
	logger := p.logger.With("outbox_id", message.ID, "run_id", message.RunID.String(), "kind", string(message.Kind))

	patches, err := message.GetPatches()
	if err != nil {
		logger.Error("Failed to unmarshal patch batch from outbox payload", "error", err)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	logger.Info("Sending patch batch to ledger", "budget_id", message.BudgetID, "patches", len(patches))

	if err := p.gateway.BulkPatch(ctx, message.BudgetID, patches); err != nil {
		return fmt.Errorf("failed to patch %d ledger entries for outbox %d: %w", len(patches), message.ID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED", "error", err)
		return fmt.Errorf("ledger patch OK, but failed to mark outbox %d as PROCESSED: %w", message.ID, err)
	}

	logger.Info("Outbox message successfully processed and marked as PROCESSED")
	return nil
}
