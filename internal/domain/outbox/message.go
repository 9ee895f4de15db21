package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/wallet-ledger/internal/domain/ledger"
	"github.com/wallet-ledger/internal/domain/shared"
)

// Message is a committed ledger event waiting to be published. It is
// written in the same atomic unit as the transaction it describes.
type Message struct {
	ID            int64               `json:"id"`
	TransactionID int64               `json:"transaction_id"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

// NewMessage encodes t as the payload of a pending message. t must already
// carry the ID assigned by the store.
func NewMessage(t *ledger.Transaction) (*Message, error) {
	payload, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return &Message{
		TransactionID: t.ID,
		Payload:       payload,
		Status:        shared.OutboxStatusPending,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now().UTC()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = shared.OutboxStatusProcessed
	now := time.Now().UTC()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = shared.OutboxStatusFailedToPublish
	now := time.Now().UTC()
	m.LastAttemptAt = &now
}

// Transaction decodes the payload.
func (m *Message) Transaction() (*ledger.Transaction, error) {
	var t ledger.Transaction
	if err := json.Unmarshal(m.Payload, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Recorder queues an event for a committed transaction inside the current unit.
type Recorder interface {
	Record(ctx context.Context, t *ledger.Transaction) error
}
