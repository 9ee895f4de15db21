package wallet

import "context"

// Reader exposes committed wallet state.
type Reader interface {
	GetByUserID(ctx context.Context, userID int64) (*Wallet, error)
	SumBalances(ctx context.Context) (int64, error)
	ListWithOwners(ctx context.Context) ([]*Owned, error)
}

// Repository is the wallet view inside an atomic unit. Only the ledger
// engine writes through it.
type Repository interface {
	Reader

	// GetOrCreate returns the wallet of userID, creating an empty one on
	// first use. Concurrent callers never produce two wallets.
	GetOrCreate(ctx context.Context, userID int64) (*Wallet, error)

	// LockForUpdate returns the wallet and holds it exclusively until the
	// enclosing unit ends.
	LockForUpdate(ctx context.Context, userID int64) (*Wallet, error)

	UpdateBalance(ctx context.Context, userID int64, newBalance int64) error
}
