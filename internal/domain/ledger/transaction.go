// Package ledger describes the append-only record of balance changes.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/wallet-ledger/internal/domain/shared"
)

// Party is the user on one side of a listed transaction.
type Party struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Transaction is one immutable ledger record. FromWallet is nil for deposits,
// ToWallet is nil for withdrawals; both are set for transfers. Amount is in
// minor units and always positive.
//
// FromUser and ToUser are resolved by store listings from the user
// directory. They are never stored or published.
type Transaction struct {
	ID          int64                    `json:"id" bson:"transaction_id"`
	Type        shared.TransactionType   `json:"type" bson:"type"`
	FromWallet  *int64                   `json:"from_wallet,omitempty" bson:"from_wallet,omitempty"`
	ToWallet    *int64                   `json:"to_wallet,omitempty" bson:"to_wallet,omitempty"`
	Amount      int64                    `json:"amount" bson:"amount"`
	Status      shared.TransactionStatus `json:"status" bson:"status"`
	Description string                   `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt   time.Time                `json:"created_at" bson:"created_at"`

	FromUser *Party `json:"-" bson:"-"`
	ToUser   *Party `json:"-" bson:"-"`
}

func NewDeposit(userID, amount int64, description string) *Transaction {
	return &Transaction{
		Type:        shared.TransactionTypeDeposit,
		ToWallet:    &userID,
		Amount:      amount,
		Status:      shared.TransactionStatusCompleted,
		Description: description,
	}
}

func NewWithdrawal(userID, amount int64, description string) *Transaction {
	return &Transaction{
		Type:        shared.TransactionTypeWithdraw,
		FromWallet:  &userID,
		Amount:      amount,
		Status:      shared.TransactionStatusCompleted,
		Description: description,
	}
}

func NewTransfer(fromUserID, toUserID, amount int64, description string) *Transaction {
	return &Transaction{
		Type:        shared.TransactionTypeTransfer,
		FromWallet:  &fromUserID,
		ToWallet:    &toUserID,
		Amount:      amount,
		Status:      shared.TransactionStatusCompleted,
		Description: description,
	}
}

// Involves reports whether userID is on either side of the transaction.
func (t *Transaction) Involves(userID int64) bool {
	return (t.FromWallet != nil && *t.FromWallet == userID) ||
		(t.ToWallet != nil && *t.ToWallet == userID)
}

// Newer orders transactions for display: newest first, ties broken by ID.
func Newer(a, b *Transaction) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// ErrMalformedTransaction is returned by Validate for records that could not
// have been written by the engine.
var ErrMalformedTransaction = errors.New("malformed ledger transaction")

// Validate checks the shape of a record received from outside the store.
func (t *Transaction) Validate() error {
	if t.ID <= 0 {
		return fmt.Errorf("%w: missing id", ErrMalformedTransaction)
	}
	if t.Amount <= 0 {
		return fmt.Errorf("%w: non-positive amount %d", ErrMalformedTransaction, t.Amount)
	}
	if _, err := shared.ParseTransactionType(string(t.Type)); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedTransaction, err)
	}

	hasFrom, hasTo := t.FromWallet != nil, t.ToWallet != nil
	var ok bool
	switch t.Type {
	case shared.TransactionTypeDeposit:
		ok = !hasFrom && hasTo
	case shared.TransactionTypeWithdraw:
		ok = hasFrom && !hasTo
	case shared.TransactionTypeTransfer:
		ok = hasFrom && hasTo && *t.FromWallet != *t.ToWallet
	}
	if !ok {
		return fmt.Errorf("%w: wallets do not match type %s", ErrMalformedTransaction, t.Type)
	}
	return nil
}
