// Package store defines the ledger store seen by the engine and the
// reporting view. Implementations live under internal/data.
package store

import (
	"context"

	"github.com/wallet-ledger/internal/domain/ledger"
	"github.com/wallet-ledger/internal/domain/outbox"
	"github.com/wallet-ledger/internal/domain/user"
	"github.com/wallet-ledger/internal/domain/wallet"
)

// Store gives read access to committed state and runs atomic units.
type Store interface {
	// ExecuteTx runs fn as one atomic unit: every write made through tx
	// becomes visible together when fn returns nil, and none does otherwise.
	ExecuteTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	Wallets() wallet.Reader
	Transactions() ledger.Reader
	Users() user.Directory

	// BalanceSheet reads the balance total and the ledger totals from the
	// same committed state.
	BalanceSheet(ctx context.Context) (BalanceSheet, error)
}

// BalanceSheet is the sum of every wallet balance next to the completed
// deposit and withdrawal totals.
type BalanceSheet struct {
	TotalBalance int64
	ledger.Totals
}

// Tx is the write side of one atomic unit.
type Tx interface {
	Wallets() wallet.Repository
	Transactions() ledger.Repository
	Events() outbox.Recorder
}
