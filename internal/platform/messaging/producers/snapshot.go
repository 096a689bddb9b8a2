package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/payments-engine/internal/config"
	"github.com/payments-engine/internal/domain/account"
	"github.com/segmentio/kafka-go"
)

// SnapshotProducer writes one message per account, keyed by client id, so
// that a compacted topic keeps the latest state of every client.
type SnapshotProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
	runID  string
}

// NewSnapshotProducer ensures the snapshot topic exists and returns a producer.
// Returns nil producer if Kafka or the snapshot topic is not configured.
func NewSnapshotProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig, runID string) (*SnapshotProducer, error) {
	if !cfg.Enabled() || cfg.SnapshotTopic == "" {
		logger.Debug("Snapshot topic is not configured. SnapshotProducer will not be initialized.")
		return nil, nil
	}

	conn, err := kafka.DialContext(ctx, "tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for snapshot producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.SnapshotTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure snapshot topic %s exists: %w", cfg.SnapshotTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.SnapshotTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false, // The process exits right after publishing
		WriteTimeout: cfg.WriteTimeout,
	}

	return &SnapshotProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.SnapshotTopic,
		runID:  runID,
	}, nil
}

// snapshotMessage is the JSON value of a snapshot message
type snapshotMessage struct {
	account.Snapshot
	RunID string `json:"run_id"`
}

func (p *SnapshotProducer) PublishSnapshots(ctx context.Context, snapshots []account.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(snapshots))
	for _, s := range snapshots {
		value, err := json.Marshal(snapshotMessage{Snapshot: s, RunID: p.runID})
		if err != nil {
			return fmt.Errorf("failed to marshal snapshot for client %d: %w", s.Client, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(strconv.FormatUint(uint64(s.Client), 10)),
			Value: value,
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.logger.Error("Failed to publish account snapshots",
			"topic", p.topic,
			"count", len(msgs),
			"error", err,
		)
		return fmt.Errorf("failed to publish snapshots to %s: %w", p.topic, err)
	}

	p.logger.Info("Published account snapshots", "topic", p.topic, "count", len(msgs))
	return nil
}

func (p *SnapshotProducer) Close() error {
	p.logger.Debug("Closing snapshot producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
