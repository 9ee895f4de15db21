package outbox

import (
	"context"
	"strconv"

	"github.com/wallet-ledger/internal/domain/shared"
)

// Repository is the relay's view of the outbox table. Messages are created
// through Recorder inside the ledger unit; the relay only reads pending rows
// and moves them through their status lifecycle.
type Repository interface {
	Create(ctx context.Context, message *Message) error
	// GetPending returns up to limit PENDING messages, oldest first.
	GetPending(ctx context.Context, limit int) ([]*Message, error)
	UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error
	IncrementAttempts(ctx context.Context, id int64) error
	GetByTransactionID(ctx context.Context, transactionID int64) (*Message, error)
}

// ErrMessageNotFound is returned for an unknown message. A zero ID matches
// any missing message in errors.Is.
type ErrMessageNotFound struct {
	ID int64
}

func (e ErrMessageNotFound) Error() string {
	if e.ID == 0 {
		return "outbox message not found"
	}
	return "outbox message not found: " + strconv.FormatInt(e.ID, 10)
}

func (e ErrMessageNotFound) Is(target error) bool {
	t, ok := target.(ErrMessageNotFound)
	return ok && (t.ID == 0 || t.ID == e.ID)
}

// ErrDuplicateMessage means the transaction already has an event queued.
type ErrDuplicateMessage struct {
	TransactionID int64
}

func (e ErrDuplicateMessage) Error() string {
	return "transaction " + strconv.FormatInt(e.TransactionID, 10) + " already has an outbox message"
}
