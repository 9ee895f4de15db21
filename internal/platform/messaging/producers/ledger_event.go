package producers

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/wallet-ledger/internal/config"
	"github.com/wallet-ledger/internal/domain/outbox"
)

const eventTypeHeader = "event-type"

// LedgerEventProducer writes outbox payloads to the ledger topic. Writes are
// synchronous so that the outbox poller only marks a message processed after
// every in-sync replica acknowledged it.
type LedgerEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

func NewLedgerEventProducer(logger *slog.Logger, cfg *config.KafkaConfig) (*LedgerEventProducer, error) {
	if cfg.LedgerTopic == "" {
		return nil, fmt.Errorf("kafka ledger topic is not configured")
	}
	if err := EnsureTopic(logger, cfg, cfg.LedgerTopic); err != nil {
		return nil, fmt.Errorf("failed to ensure ledger topic %s exists: %w", cfg.LedgerTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.LedgerTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}

	return newLedgerEventProducer(logger, writer, cfg.LedgerTopic), nil
}

func newLedgerEventProducer(logger *slog.Logger, writer KafkaWriter, topic string) *LedgerEventProducer {
	return &LedgerEventProducer{
		logger: logger.With("topic", topic),
		writer: writer,
		topic:  topic,
	}
}

// Publish keys the event by transaction ID so that every event of one
// transaction lands on the same partition.
func (p *LedgerEventProducer) Publish(ctx context.Context, msg *outbox.Message) error {
	key := strconv.FormatInt(msg.TransactionID, 10)
	kafkaMsg := kafka.Message{
		Key:   []byte(key),
		Value: msg.Payload,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: eventTypeHeader, Value: []byte("ledger.transaction.committed")},
		},
	}

	if err := p.writer.WriteMessages(ctx, kafkaMsg); err != nil {
		p.logger.Error("failed to publish ledger event",
			"outbox_id", msg.ID,
			"transaction_id", msg.TransactionID,
			"error", err,
		)
		return fmt.Errorf("failed to publish ledger event %d to %s: %w", msg.TransactionID, p.topic, err)
	}

	p.logger.Debug("published ledger event", "outbox_id", msg.ID, "transaction_id", msg.TransactionID)
	return nil
}

func (p *LedgerEventProducer) Close() error {
	p.logger.Info("closing ledger event producer")
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
