package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/wallet-ledger/internal/domain/ledger"
	"github.com/wallet-ledger/internal/ledger_projector/service"
	"github.com/wallet-ledger/internal/platform/messaging/producers"
)

// LedgerEventHandler decodes ledger events from Kafka and hands them to the
// archiver. Events that can never be archived are parked on the DLQ.
type LedgerEventHandler struct {
	archiver service.Archiver
	producer producers.DeadLetterPublisher
	logger   *slog.Logger
}

func NewLedgerEventHandler(
	logger *slog.Logger,
	archiver service.Archiver,
	producer producers.DeadLetterPublisher,
) *LedgerEventHandler {
	return &LedgerEventHandler{
		archiver: archiver,
		producer: producer,
		logger:   logger,
	}
}

// HandleMessage returns nil when the offset may be committed.
func (h *LedgerEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event ledger.Transaction
	if err := json.Unmarshal(value, &event); err != nil {
		return h.deadLetter(ctx, key, value, fmt.Errorf("undecodable ledger event: %w", err))
	}
	if err := event.Validate(); err != nil {
		return h.deadLetter(ctx, key, value, err)
	}

	logger := h.logger.With("transaction_id", event.ID, "type", event.Type)
	if err := h.archiver.Archive(ctx, &event); err != nil {
		logger.Error("failed to archive ledger event", "error", err)
		return fmt.Errorf("archiving transaction %d failed: %w", event.ID, err)
	}

	logger.Debug("ledger event handled")
	return nil
}

// deadLetter commits the offset once the message is safely on the DLQ;
// otherwise the original error is returned so the message is redelivered.
func (h *LedgerEventHandler) deadLetter(ctx context.Context, key, value []byte, cause error) error {
	h.logger.Error("rejecting ledger event", "message_key", string(key), "error", cause)

	if h.producer == nil {
		return cause
	}
	if err := h.producer.PublishToDLQ(ctx, string(key), value, cause.Error()); err != nil {
		h.logger.Error("failed to publish rejected ledger event to DLQ",
			"message_key", string(key),
			"dlq_error", err,
		)
		return cause
	}
	return nil
}
