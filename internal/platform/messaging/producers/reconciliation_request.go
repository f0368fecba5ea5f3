package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/amazon-ynab-reconciler/internal/config"
	"github.com/segmentio/kafka-go"
)

// Header keys attached to every reconciliation request message
const (
	HeaderContentType   = "content-type"
	HeaderCorrelationID = "correlation-id"
)

type correlationKey struct{}

// WithCorrelationID returns a context whose published messages carry correlationID
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationKey{}, correlationID)
}

// CorrelationIDFrom returns the correlation ID stored by WithCorrelationID, if any
func CorrelationIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// ReconciliationReqProducer publishes reconciliation requests for the processor
type ReconciliationReqProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewReconciliationReqProducer creates the gateway producer and ensures the request topic exists
func NewReconciliationReqProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*ReconciliationReqProducer, error) {
	if cfg.ReconcileTopic == "" {
		return nil, fmt.Errorf("kafka reconcile topic is not configured")
	}

	want := topicSettings{Name: cfg.ReconcileTopic, NumPartitions: cfg.NumPartitions, ReplicationFactor: cfg.ReplicationFactor}
	if err := dialAndEnsureTopic(ctx, cfg.Brokers, want, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure topic %s exists for reconciliation producer: %w", cfg.ReconcileTopic, err)
	}

	// Synchronous writes: the gateway acknowledges a run only once its request is on the topic.
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.ReconcileTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}

	return &ReconciliationReqProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.ReconcileTopic,
	}, nil
}

// Publish marshals value as JSON and writes it keyed by key. A correlation ID
// found on ctx is carried as a message header.
func (p *ReconciliationReqProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message value for reconciliation producer: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
		Headers: []kafka.Header{
			{Key: HeaderContentType, Value: []byte("application/json")},
		},
	}
	if correlationID := CorrelationIDFrom(ctx); correlationID != "" {
		msg.Headers = append(msg.Headers, kafka.Header{Key: HeaderCorrelationID, Value: []byte(correlationID)})
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish reconciliation request",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish message to %s via reconciliation producer: %w", p.topic, err)
	}

	p.logger.Debug("Published reconciliation request",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *ReconciliationReqProducer) Close() error {
	p.logger.Info("Closing reconciliation request producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close reconciliation kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
