// Package wallet holds the per-user balance and the rules that guard it.
package wallet

import (
	"math"
	"time"
)

// Wallet is the single balance owned by a user. Balance is in minor units
// and is never negative.
type Wallet struct {
	UserID    int64     `json:"user_id"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns an empty wallet for userID.
func New(userID int64) *Wallet {
	now := time.Now().UTC()
	return &Wallet{UserID: userID, CreatedAt: now, UpdatedAt: now}
}

// Deposit adds amount to the balance.
func (w *Wallet) Deposit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if w.Balance > math.MaxInt64-amount {
		return ErrBalanceOverflow
	}
	w.Balance += amount
	w.UpdatedAt = time.Now().UTC()
	return nil
}

// Withdraw subtracts amount, refusing to go below zero.
func (w *Wallet) Withdraw(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if !w.CanWithdraw(amount) {
		return ErrInsufficientFunds
	}
	w.Balance -= amount
	w.UpdatedAt = time.Now().UTC()
	return nil
}

func (w *Wallet) CanWithdraw(amount int64) bool {
	return w.Balance >= amount
}

// Owned is a wallet joined with its owner for administrative listings.
// Users without a wallet are reported with a zero balance.
type Owned struct {
	UserID    int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}
