package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wallet-ledger/internal/domain/outbox"
	"github.com/wallet-ledger/internal/domain/shared"
)

// ErrUndeliverable marks a message that can never be published. The poller
// does not retry it.
var ErrUndeliverable = errors.New("outbox message is undeliverable")

// Publisher is the broker side of the relay.
type Publisher interface {
	Publish(ctx context.Context, msg *outbox.Message) error
}

// Relay moves one outbox message to the broker.
type Relay interface {
	Relay(ctx context.Context, msg *outbox.Message) error
}

var _ Relay = (*EventRelay)(nil)

// EventRelay publishes a message and marks it processed once the broker
// acknowledged it.
type EventRelay struct {
	outboxRepo outbox.Repository
	publisher  Publisher
	logger     *slog.Logger
}

func NewEventRelay(outboxRepo outbox.Repository, publisher Publisher, logger *slog.Logger) *EventRelay {
	return &EventRelay{
		outboxRepo: outboxRepo,
		publisher:  publisher,
		logger:     logger,
	}
}

func (r *EventRelay) Relay(ctx context.Context, msg *outbox.Message) error {
	logger := r.logger.With("outbox_id", msg.ID, "transaction_id", msg.TransactionID)

	if _, err := msg.Transaction(); err != nil {
		logger.Error("outbox payload is not a ledger transaction", "error", err)
		if updateErr := r.outboxRepo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			logger.Error("failed to mark undecodable outbox message", "error", updateErr)
		}
		return fmt.Errorf("%w: outbox %d: %v", ErrUndeliverable, msg.ID, err)
	}

	if err := r.publisher.Publish(ctx, msg); err != nil {
		return fmt.Errorf("publish outbox %d: %w", msg.ID, err)
	}

	// A failure here republishes the event on the next tick; consumers
	// deduplicate by transaction ID.
	if err := r.outboxRepo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("event published but outbox status not updated", "error", err)
		return fmt.Errorf("published transaction %d but failed to mark outbox %d processed: %w",
			msg.TransactionID, msg.ID, err)
	}

	logger.Debug("outbox message relayed")
	return nil
}
