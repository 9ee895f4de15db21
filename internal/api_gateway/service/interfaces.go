package service

import (
	"context"

	"github.com/wallet-ledger/internal/domain/ledger"
	"github.com/wallet-ledger/internal/domain/wallet"
	"github.com/wallet-ledger/internal/engine"
	"github.com/wallet-ledger/internal/reporting"
)

// LedgerEngine is the write side. *engine.Engine implements it.
type LedgerEngine interface {
	Deposit(ctx context.Context, userID, amount int64, description string) (*engine.Result, error)
	Withdraw(ctx context.Context, userID, amount int64, description string) (*engine.Result, error)
	Transfer(ctx context.Context, fromUserID, toUserID, amount int64, description string) (*engine.TransferResult, error)
	GetWallet(ctx context.Context, userID int64) (*wallet.Wallet, error)
}

// ReportingView is the read side. *reporting.View implements it.
type ReportingView interface {
	TotalSystemBalance(ctx context.Context) (int64, error)
	TransactionsFor(ctx context.Context, userID int64, page reporting.Page) ([]*ledger.Transaction, int64, error)
	AllTransactions(ctx context.Context, page reporting.Page) ([]*ledger.Transaction, int64, error)
	AllWalletsWithOwners(ctx context.Context) ([]*wallet.Owned, error)
	Reconcile(ctx context.Context) (*reporting.Reconciliation, error)
}

var (
	_ LedgerEngine  = (*engine.Engine)(nil)
	_ ReportingView = (*reporting.View)(nil)
)

// Recipient names the receiver of a transfer by ID or by email.
// UserID wins when both are set.
type Recipient struct {
	UserID int64
	Email  string
}

// WalletService defines the interface for wallet operations
type WalletService interface {
	// GetWallet returns ErrWalletNotFound until the first operation on the wallet
	GetWallet(ctx context.Context, userID int64) (*wallet.Wallet, error)

	Deposit(ctx context.Context, userID, amount int64, description string) (*engine.Result, error)

	Withdraw(ctx context.Context, userID, amount int64, description string) (*engine.Result, error)

	// Transfer resolves the recipient and moves amount to their wallet.
	// Returns ErrReceiverNotFound when the recipient does not exist
	Transfer(ctx context.Context, fromUserID int64, to Recipient, amount int64, description string) (*engine.TransferResult, error)
}

// ReportingService defines the interface for read-only ledger reports
type ReportingService interface {
	// TransactionsFor returns one page of the user's history, newest first, and the total count
	TransactionsFor(ctx context.Context, userID int64, page, perPage int) ([]*ledger.Transaction, int64, error)

	// AllTransactions returns one page of every record, newest first, and the total count
	AllTransactions(ctx context.Context, page, perPage int) ([]*ledger.Transaction, int64, error)

	TotalBalance(ctx context.Context) (int64, error)

	WalletsWithOwners(ctx context.Context) ([]*wallet.Owned, error)

	// Summary reconciles balances against deposits and withdrawals
	Summary(ctx context.Context) (*reporting.Reconciliation, error)
}
