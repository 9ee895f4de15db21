package ledger

import (
	"context"
	"strconv"
)

// Filter selects transactions. A zero UserID selects every transaction.
// A zero Limit disables pagination.
type Filter struct {
	UserID int64
	Limit  int
	Offset int
}

// Totals are the sums of completed deposit and withdrawal amounts.
type Totals struct {
	Deposits    int64 `json:"deposits"`
	Withdrawals int64 `json:"withdrawals"`
}

// Reader exposes committed transactions, newest first.
type Reader interface {
	List(ctx context.Context, filter Filter) ([]*Transaction, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	Totals(ctx context.Context) (Totals, error)
}

// Repository appends inside an atomic unit. Records are never updated or deleted.
type Repository interface {
	Reader

	// Append assigns ID and CreatedAt to t and stores it.
	Append(ctx context.Context, t *Transaction) error
}

// ErrTransactionNotFound indicates a missing ledger record.
type ErrTransactionNotFound struct {
	ID int64
}

func (e ErrTransactionNotFound) Error() string {
	return "transaction not found: " + strconv.FormatInt(e.ID, 10)
}

func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	return t.ID == 0 || t.ID == e.ID
}

// ErrDuplicateTransaction indicates the record was already archived.
type ErrDuplicateTransaction struct {
	ID int64
}

func (e ErrDuplicateTransaction) Error() string {
	return "duplicate transaction: " + strconv.FormatInt(e.ID, 10)
}

func (e ErrDuplicateTransaction) Is(target error) bool {
	t, ok := target.(ErrDuplicateTransaction)
	if !ok {
		return false
	}
	return t.ID == 0 || t.ID == e.ID
}

// Archive is the projected copy of committed transactions. Insert reports
// ErrDuplicateTransaction when the record is already archived, which lets
// redelivered events be acknowledged safely.
type Archive interface {
	Reader

	Insert(ctx context.Context, t *Transaction) error
	GetByID(ctx context.Context, id int64) (*Transaction, error)
}
