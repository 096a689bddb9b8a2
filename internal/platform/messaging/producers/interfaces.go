package producers

import (
	"context"

	"github.com/payments-engine/internal/domain/account"
	"github.com/segmentio/kafka-go"
)

// SnapshotPublisher publishes the final account snapshots of a run
type SnapshotPublisher interface {
	PublishSnapshots(ctx context.Context, snapshots []account.Snapshot) error
	Close() error
}

// DeadLetterPublisher handles publishing rejected input rows to a Dead Letter Queue
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalRow []byte, reason string) error
	Close() error
}

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
