package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/amazon-ynab-reconciler/internal/domain/shared"
	"github.com/amazon-ynab-reconciler/internal/platform/messaging/producers"
	"github.com/amazon-ynab-reconciler/internal/reconciliation_processor/service"
)

// RequestHandler handles reconciliation request messages from Kafka
type RequestHandler struct {
	processingService service.ProcessingService
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

// NewRequestHandler creates a new handler
func NewRequestHandler(
	logger *slog.Logger,
	processingService service.ProcessingService,
	producer producers.DeadLetterPublisher,
) *RequestHandler {
	return &RequestHandler{
		processingService: processingService,
		producer:          producer,
		logger:            logger,
	}
}

// HandleMessage processes Kafka messages. A nil return commits the offset.
func (h *RequestHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request shared.ReconciliationRequest
	if err := json.Unmarshal(value, &request); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal reconciliation request from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
			} else {
				h.logger.Info("Successfully published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				return nil
			}
		}
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	logger := h.logger
	if request.CorrelationID != "" {
		logger = h.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Received reconciliation request for processing",
		"run_id", request.RunID.String(),
		"fragments", len(request.Fragments),
		"invoices", len(request.Invoices),
	)

	if err := h.processingService.ProcessReconciliation(ctx, &request); err != nil {
		logger.Error("Failed to process reconciliation",
			"run_id", request.RunID.String(),
			"error", err,
		)
		return fmt.Errorf("processing run %s failed: %w", request.RunID.String(), err)
	}

	logger.Info("Successfully processed reconciliation", "run_id", request.RunID.String())
	return nil
}
