// Package reporting answers read-only questions about the ledger. Every figure
// is derived from committed state on demand; nothing is cached.
package reporting

import (
	"context"
	"fmt"

	"github.com/wallet-ledger/internal/domain/ledger"
	"github.com/wallet-ledger/internal/domain/store"
	"github.com/wallet-ledger/internal/domain/wallet"
)

// Page selects a 1-based page. A zero Size returns everything.
type Page struct {
	Number int
	Size   int
}

func (p Page) filter(userID int64) ledger.Filter {
	f := ledger.Filter{UserID: userID}
	if p.Size > 0 {
		number := max(p.Number, 1)
		f.Limit = p.Size
		f.Offset = (number - 1) * p.Size
	}
	return f
}

// Reconciliation compares the sum of all balances with the ledger history.
type Reconciliation struct {
	TotalBalance int64
	Deposits     int64
	Withdrawals  int64
	Expected     int64
	Balanced     bool
}

type View struct {
	store store.Store
}

func NewView(s store.Store) *View {
	return &View{store: s}
}

// TotalSystemBalance is the sum of every wallet balance.
func (v *View) TotalSystemBalance(ctx context.Context) (int64, error) {
	return v.store.Wallets().SumBalances(ctx)
}

// TransactionsFor returns the records in which userID is sender or receiver,
// newest first, together with their total count. No user has ID zero, so it
// yields an empty page rather than every record.
func (v *View) TransactionsFor(ctx context.Context, userID int64, page Page) ([]*ledger.Transaction, int64, error) {
	if userID <= 0 {
		return []*ledger.Transaction{}, 0, nil
	}
	return v.list(ctx, page.filter(userID))
}

// AllTransactions returns every record, newest first.
func (v *View) AllTransactions(ctx context.Context, page Page) ([]*ledger.Transaction, int64, error) {
	return v.list(ctx, page.filter(0))
}

func (v *View) list(ctx context.Context, filter ledger.Filter) ([]*ledger.Transaction, int64, error) {
	txs, err := v.store.Transactions().List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := v.store.Transactions().Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

// AllWalletsWithOwners lists every user with the balance of their wallet, or
// 0 when they have none yet.
func (v *View) AllWalletsWithOwners(ctx context.Context) ([]*wallet.Owned, error) {
	return v.store.Wallets().ListWithOwners(ctx)
}

// Reconcile checks that balances add up to deposits minus withdrawals. Both
// sides are read from one balance sheet.
func (v *View) Reconcile(ctx context.Context) (*Reconciliation, error) {
	sheet, err := v.store.BalanceSheet(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance sheet: %w", err)
	}
	expected := sheet.Deposits - sheet.Withdrawals
	return &Reconciliation{
		TotalBalance: sheet.TotalBalance,
		Deposits:     sheet.Deposits,
		Withdrawals:  sheet.Withdrawals,
		Expected:     expected,
		Balanced:     sheet.TotalBalance == expected,
	}, nil
}
