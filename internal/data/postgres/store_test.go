package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wallet-ledger/internal/domain/ledger"
	"github.com/wallet-ledger/internal/domain/shared"
	"github.com/wallet-ledger/internal/domain/store"
	"github.com/wallet-ledger/internal/domain/wallet"
)

func TestStore_ExecuteTx_DepositUnit(t *testing.T) {
	ctx := context.Background()
	mock := newMock(t)
	s := newStore(testLogger, mock)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(q("INSERT INTO wallets")).WithArgs(int64(1)).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(q("FROM wallets")).WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows(walletColumns).AddRow(int64(1), int64(0), now, now))
	mock.ExpectQuery(q("FOR UPDATE")).WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows(walletColumns).AddRow(int64(1), int64(0), now, now))
	mock.ExpectExec(q("UPDATE wallets")).WithArgs(int64(500), int64(1)).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(q("INSERT INTO transactions")).
		WithArgs(shared.TransactionTypeDeposit, (*int64)(nil), int64Ptr(1), int64(500), shared.TransactionStatusCompleted, (*string)(nil)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), now))
	mock.ExpectQuery(q("INSERT INTO transaction_outbox")).
		WithArgs(int64(1), pgxmock.AnyArg(), shared.OutboxStatusPending, 0, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectCommit()

	err := s.ExecuteTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.Wallets().GetOrCreate(ctx, 1); err != nil {
			return err
		}
		w, err := tx.Wallets().LockForUpdate(ctx, 1)
		if err != nil {
			return err
		}
		if err := w.Deposit(500); err != nil {
			return err
		}
		if err := tx.Wallets().UpdateBalance(ctx, 1, w.Balance); err != nil {
			return err
		}
		rec := ledger.NewDeposit(1, 500, "")
		if err := tx.Transactions().Append(ctx, rec); err != nil {
			return err
		}
		return tx.Events().Record(ctx, rec)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ExecuteTx_RollsBackOnDomainError(t *testing.T) {
	ctx := context.Background()
	mock := newMock(t)
	s := newStore(testLogger, mock)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(q("FOR UPDATE")).WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows(walletColumns).AddRow(int64(1), int64(100), now, now))
	mock.ExpectRollback()

	err := s.ExecuteTx(ctx, func(ctx context.Context, tx store.Tx) error {
		w, err := tx.Wallets().LockForUpdate(ctx, 1)
		if err != nil {
			return err
		}
		return w.Withdraw(200)
	})
	assert.True(t, errors.Is(err, wallet.ErrInsufficientFunds))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ReadersUsePool(t *testing.T) {
	mock := newMock(t)
	s := newStore(testLogger, mock)

	mock.ExpectQuery(q("SUM(balance)")).WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(int64(0)))
	total, err := s.Wallets().SumBalances(context.Background())
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, s.Transactions())
	assert.NotNil(t, s.Users())
	assert.NotNil(t, s.Outbox())
}

func TestStore_BalanceSheet(t *testing.T) {
	ctx := context.Background()

	t.Run("single statement", func(t *testing.T) {
		mock := newMock(t)
		s := newStore(testLogger, mock)
		mock.ExpectQuery(q("(SELECT COALESCE(SUM(balance), 0) FROM wallets)")+".*"+q("FROM transactions")).
			WithArgs(shared.TransactionTypeDeposit, shared.TransactionTypeWithdraw, shared.TransactionStatusCompleted).
			WillReturnRows(pgxmock.NewRows([]string{"balance", "deposits", "withdrawals"}).AddRow(int64(6500), int64(9000), int64(2500)))

		sheet, err := s.BalanceSheet(ctx)
		require.NoError(t, err)
		assert.Equal(t, store.BalanceSheet{
			TotalBalance: 6500,
			Totals:       ledger.Totals{Deposits: 9000, Withdrawals: 2500},
		}, sheet)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		mock := newMock(t)
		s := newStore(testLogger, mock)
		dbErr := errors.New("connection reset")
		mock.ExpectQuery(q("FROM transactions")).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(dbErr)

		_, err := s.BalanceSheet(ctx)
		assert.ErrorIs(t, err, dbErr)
	})
}
