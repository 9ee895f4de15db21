// Package engine is the only writer of wallet balances and ledger records.
//
// Every mutating operation runs as one atomic unit: it takes the wallet
// guard, opens a store transaction, re-reads balances under lock, validates,
// writes the new balances, appends exactly one transaction record and queues
// its event. Validation failures leave no trace.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wallet-ledger/internal/domain/ledger"
	"github.com/wallet-ledger/internal/domain/store"
	"github.com/wallet-ledger/internal/domain/user"
	"github.com/wallet-ledger/internal/domain/wallet"
	"github.com/wallet-ledger/internal/guard"
)

// Locker serializes access to wallets. *guard.Guard implements it.
type Locker interface {
	Acquire(ctx context.Context, userIDs ...int64) (func(), error)
}

var _ Locker = (*guard.Guard)(nil)

// Result is returned by Deposit and Withdraw.
type Result struct {
	Balance     int64
	Transaction *ledger.Transaction
}

// TransferResult is returned by Transfer.
type TransferResult struct {
	SenderBalance   int64
	ReceiverBalance int64
	Transaction     *ledger.Transaction
}

type Engine struct {
	store  store.Store
	locker Locker
	logger *slog.Logger
}

func New(s store.Store, locker Locker, logger *slog.Logger) *Engine {
	return &Engine{store: s, locker: locker, logger: logger}
}

// Deposit credits amount to the wallet of userID, creating it on first use.
func (e *Engine) Deposit(ctx context.Context, userID, amount int64, description string) (*Result, error) {
	if amount <= 0 {
		return nil, wallet.ErrInvalidAmount
	}

	var res Result
	err := e.run(ctx, func(ctx context.Context, tx store.Tx) error {
		w, err := lockWallet(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := w.Deposit(amount); err != nil {
			return err
		}
		rec := ledger.NewDeposit(userID, amount, description)
		if err := commitRecord(ctx, tx, rec, w); err != nil {
			return err
		}
		res = Result{Balance: w.Balance, Transaction: rec}
		return nil
	}, userID)
	if err != nil {
		e.logFailure("deposit", err, "user_id", userID, "amount", amount)
		return nil, err
	}

	e.logger.Info("deposit committed",
		"transaction_id", res.Transaction.ID, "user_id", userID, "amount", amount, "balance", res.Balance)
	return &res, nil
}

// Withdraw debits amount from the wallet of userID. The balance is checked
// under lock, so concurrent withdrawals can never overdraw.
func (e *Engine) Withdraw(ctx context.Context, userID, amount int64, description string) (*Result, error) {
	if amount <= 0 {
		return nil, wallet.ErrInvalidAmount
	}

	var res Result
	err := e.run(ctx, func(ctx context.Context, tx store.Tx) error {
		w, err := lockWallet(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := w.Withdraw(amount); err != nil {
			return err
		}
		rec := ledger.NewWithdrawal(userID, amount, description)
		if err := commitRecord(ctx, tx, rec, w); err != nil {
			return err
		}
		res = Result{Balance: w.Balance, Transaction: rec}
		return nil
	}, userID)
	if err != nil {
		e.logFailure("withdraw", err, "user_id", userID, "amount", amount)
		return nil, err
	}

	e.logger.Info("withdraw committed",
		"transaction_id", res.Transaction.ID, "user_id", userID, "amount", amount, "balance", res.Balance)
	return &res, nil
}

// Transfer moves amount between two wallets. The receiver must exist in the
// user directory; both wallets are created on first use.
func (e *Engine) Transfer(ctx context.Context, fromUserID, toUserID, amount int64, description string) (*TransferResult, error) {
	if amount <= 0 {
		return nil, wallet.ErrInvalidAmount
	}
	if fromUserID == toUserID {
		return nil, wallet.ErrSelfTransfer
	}
	if _, err := e.store.Users().GetByID(ctx, toUserID); err != nil {
		if errors.Is(err, user.ErrUserNotFound{}) {
			return nil, wallet.ErrReceiverNotFound{UserID: toUserID}
		}
		return nil, fmt.Errorf("failed to resolve receiver: %w", err)
	}

	var res TransferResult
	err := e.run(ctx, func(ctx context.Context, tx store.Tx) error {
		// ascending order matches the guard and avoids row-lock deadlocks
		first, second := fromUserID, toUserID
		if first > second {
			first, second = second, first
		}
		locked := make(map[int64]*wallet.Wallet, 2)
		for _, id := range []int64{first, second} {
			w, err := lockWallet(ctx, tx, id)
			if err != nil {
				return err
			}
			locked[id] = w
		}
		sender, receiver := locked[fromUserID], locked[toUserID]

		if err := sender.Withdraw(amount); err != nil {
			return err
		}
		if err := receiver.Deposit(amount); err != nil {
			return err
		}
		rec := ledger.NewTransfer(fromUserID, toUserID, amount, description)
		if err := commitRecord(ctx, tx, rec, sender, receiver); err != nil {
			return err
		}
		res = TransferResult{SenderBalance: sender.Balance, ReceiverBalance: receiver.Balance, Transaction: rec}
		return nil
	}, fromUserID, toUserID)
	if err != nil {
		e.logFailure("transfer", err, "from_user_id", fromUserID, "to_user_id", toUserID, "amount", amount)
		return nil, err
	}

	e.logger.Info("transfer committed",
		"transaction_id", res.Transaction.ID,
		"from_user_id", fromUserID,
		"to_user_id", toUserID,
		"amount", amount,
	)
	return &res, nil
}

// GetWallet reads the committed wallet of userID.
func (e *Engine) GetWallet(ctx context.Context, userID int64) (*wallet.Wallet, error) {
	return e.store.Wallets().GetByUserID(ctx, userID)
}

// run holds the guard for userIDs around one store transaction. Once the
// guard is held the unit is not cancelled by the caller's context.
func (e *Engine) run(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error, userIDs ...int64) error {
	release, err := e.locker.Acquire(ctx, userIDs...)
	if err != nil {
		return err
	}
	defer release()

	return e.store.ExecuteTx(context.WithoutCancel(ctx), fn)
}

func lockWallet(ctx context.Context, tx store.Tx, userID int64) (*wallet.Wallet, error) {
	if _, err := tx.Wallets().GetOrCreate(ctx, userID); err != nil {
		return nil, err
	}
	return tx.Wallets().LockForUpdate(ctx, userID)
}

// commitRecord persists the changed wallets, appends rec and queues its event.
func commitRecord(ctx context.Context, tx store.Tx, rec *ledger.Transaction, changed ...*wallet.Wallet) error {
	for _, w := range changed {
		if err := tx.Wallets().UpdateBalance(ctx, w.UserID, w.Balance); err != nil {
			return err
		}
	}
	if err := tx.Transactions().Append(ctx, rec); err != nil {
		return err
	}
	return tx.Events().Record(ctx, rec)
}

func (e *Engine) logFailure(op string, err error, attrs ...any) {
	attrs = append(attrs, "error", err)
	switch {
	case wallet.IsValidation(err):
		e.logger.Info(op+" rejected", attrs...)
	case errors.Is(err, guard.ErrAcquireTimeout):
		e.logger.Warn(op+" timed out waiting for wallet", attrs...)
	default:
		e.logger.Error(op+" failed", attrs...)
	}
}
