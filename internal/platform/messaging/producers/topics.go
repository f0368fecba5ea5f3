package producers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// topicAdmin is the subset of *kafka.Conn needed to provision topics
type topicAdmin interface {
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	CreateTopics(topics ...kafka.TopicConfig) error
}

// topicSettings describes a topic the producers write to
type topicSettings struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
}

const topicReadAttempts = 5

var topicReadBackoff = 2 * time.Second

// ensureTopic creates the topic unless its partitions can be read within
// topicReadAttempts tries
func ensureTopic(ctx context.Context, admin topicAdmin, want topicSettings, log *slog.Logger) error {
	log = log.With("topic", want.Name)

	var (
		partitions []kafka.Partition
		err        error
	)
	for attempt := 1; attempt <= topicReadAttempts; attempt++ {
		partitions, err = admin.ReadPartitions(want.Name)
		if err == nil && len(partitions) > 0 {
			log.Info("Kafka topic already exists", "partitions", len(partitions))
			return nil
		}
		if attempt == topicReadAttempts {
			break
		}
		log.Warn("Failed to read topic partitions, retrying", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(topicReadBackoff):
		}
	}

	cfg := kafka.TopicConfig{
		Topic:             want.Name,
		NumPartitions:     want.NumPartitions,
		ReplicationFactor: want.ReplicationFactor,
	}
	if cfg.NumPartitions <= 0 {
		cfg.NumPartitions = 1
	}
	if cfg.ReplicationFactor <= 0 {
		cfg.ReplicationFactor = 1
	}

	log.Info("Creating Kafka topic", "partitions", cfg.NumPartitions, "replication_factor", cfg.ReplicationFactor, "last_read_error", err)
	if err := admin.CreateTopics(cfg); err != nil {
		return fmt.Errorf("failed to create kafka topic %s: %w", want.Name, err)
	}
	return nil
}

// dialAndEnsureTopic connects to brokers and provisions the topic
func dialAndEnsureTopic(ctx context.Context, brokers string, want topicSettings, log *slog.Logger) error {
	conn, err := kafka.DialContext(ctx, "tcp", brokers)
	if err != nil {
		return fmt.Errorf("failed to dial kafka: %w", err)
	}
	defer conn.Close()

	return ensureTopic(ctx, conn, want, log)
}
