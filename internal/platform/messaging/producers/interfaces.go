package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
	"github.com/wallet-ledger/internal/domain/outbox"
)

// EventPublisher delivers committed ledger events to the ledger topic.
type EventPublisher interface {
	Publish(ctx context.Context, msg *outbox.Message) error
	Close() error
}

// DeadLetterPublisher parks messages that can never be processed.
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
