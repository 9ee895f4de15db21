package memory

import (
	"context"
	"time"

	"github.com/wallet-ledger/internal/domain/ledger"
	"github.com/wallet-ledger/internal/domain/outbox"
	"github.com/wallet-ledger/internal/domain/store"
	"github.com/wallet-ledger/internal/domain/wallet"
)

// unit collects the writes of one atomic unit until commit.
type unit struct {
	store    *Store
	staged   map[int64]*wallet.Wallet
	appended []*ledger.Transaction
	events   []*outbox.Message
}

var (
	_ store.Tx          = (*unit)(nil)
	_ wallet.Repository = (*unitWallets)(nil)
	_ ledger.Repository = (*unitTransactions)(nil)
)

func (u *unit) Wallets() wallet.Repository      { return (*unitWallets)(u) }
func (u *unit) Transactions() ledger.Repository { return (*unitTransactions)(u) }
func (u *unit) Events() outbox.Recorder         { return (*unitEvents)(u) }

type unitWallets unit

// current returns the staged wallet, staging a copy of the committed one on first access.
func (w *unitWallets) current(userID int64) (*wallet.Wallet, bool) {
	if s, ok := w.staged[userID]; ok {
		return s, true
	}
	w.store.mu.RLock()
	committed, ok := w.store.wallets[userID]
	w.store.mu.RUnlock()
	if !ok {
		return nil, false
	}
	s := copyWallet(committed)
	w.staged[userID] = s
	return s, true
}

func (w *unitWallets) GetByUserID(_ context.Context, userID int64) (*wallet.Wallet, error) {
	s, ok := w.current(userID)
	if !ok {
		return nil, wallet.ErrWalletNotFound{UserID: userID}
	}
	return copyWallet(s), nil
}

func (w *unitWallets) GetOrCreate(ctx context.Context, userID int64) (*wallet.Wallet, error) {
	if _, ok := w.current(userID); !ok {
		w.staged[userID] = wallet.New(userID)
	}
	return w.GetByUserID(ctx, userID)
}

func (w *unitWallets) LockForUpdate(ctx context.Context, userID int64) (*wallet.Wallet, error) {
	return w.GetByUserID(ctx, userID)
}

func (w *unitWallets) UpdateBalance(_ context.Context, userID int64, newBalance int64) error {
	s, ok := w.current(userID)
	if !ok {
		return wallet.ErrWalletNotFound{UserID: userID}
	}
	if newBalance < 0 {
		return wallet.ErrInsufficientFunds
	}
	s.Balance = newBalance
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (w *unitWallets) SumBalances(ctx context.Context) (int64, error) {
	return w.store.Wallets().SumBalances(ctx)
}

func (w *unitWallets) ListWithOwners(ctx context.Context) ([]*wallet.Owned, error) {
	return w.store.Wallets().ListWithOwners(ctx)
}

type unitTransactions unit

func (t *unitTransactions) Append(_ context.Context, tx *ledger.Transaction) error {
	tx.ID = t.store.nextTxID.Add(1)
	tx.CreatedAt = time.Now().UTC()
	t.appended = append(t.appended, copyTransaction(tx))
	return nil
}

func (t *unitTransactions) List(ctx context.Context, filter ledger.Filter) ([]*ledger.Transaction, error) {
	return t.store.Transactions().List(ctx, filter)
}

func (t *unitTransactions) Count(ctx context.Context, filter ledger.Filter) (int64, error) {
	return t.store.Transactions().Count(ctx, filter)
}

func (t *unitTransactions) Totals(ctx context.Context) (ledger.Totals, error) {
	return t.store.Transactions().Totals(ctx)
}

type unitEvents unit

func (e *unitEvents) Record(_ context.Context, tx *ledger.Transaction) error {
	msg, err := outbox.NewMessage(tx)
	if err != nil {
		return err
	}
	e.events = append(e.events, msg)
	return nil
}
