package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wallet-ledger/internal/data/memory"
	"github.com/wallet-ledger/internal/domain/ledger"
	"github.com/wallet-ledger/internal/domain/outbox"
	"github.com/wallet-ledger/internal/domain/shared"
	"github.com/wallet-ledger/internal/domain/store"
	"github.com/wallet-ledger/internal/domain/wallet"
	"github.com/wallet-ledger/internal/guard"
	"github.com/wallet-ledger/internal/logger"
)

type fixture struct {
	store  *memory.Store
	engine *Engine
	alice  int64
	bob    int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memory.NewStore()
	alice, err := s.AddUser("Alice", "alice@example.com", shared.RoleUser)
	require.NoError(t, err)
	bob, err := s.AddUser("Bob", "bob@example.com", shared.RoleUser)
	require.NoError(t, err)
	return &fixture{
		store:  s,
		engine: New(s, guard.New(time.Second), logger.Discard()),
		alice:  alice.ID,
		bob:    bob.ID,
	}
}

func (f *fixture) balance(t *testing.T, userID int64) int64 {
	t.Helper()
	w, err := f.engine.GetWallet(context.Background(), userID)
	if errors.Is(err, wallet.ErrWalletNotFound{}) {
		return 0
	}
	require.NoError(t, err)
	return w.Balance
}

func (f *fixture) count(t *testing.T, userID int64) int64 {
	t.Helper()
	n, err := f.store.Transactions().Count(context.Background(), ledger.Filter{UserID: userID})
	require.NoError(t, err)
	return n
}

func TestDeposit_CreatesWalletAndRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.GetWallet(ctx, f.alice)
	require.ErrorIs(t, err, wallet.ErrWalletNotFound{UserID: f.alice})

	res, err := f.engine.Deposit(ctx, f.alice, 5000, "salary")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), res.Balance)

	rec := res.Transaction
	assert.NotZero(t, rec.ID)
	assert.Equal(t, shared.TransactionTypeDeposit, rec.Type)
	assert.Nil(t, rec.FromWallet)
	require.NotNil(t, rec.ToWallet)
	assert.Equal(t, f.alice, *rec.ToWallet)
	assert.Equal(t, int64(5000), rec.Amount)
	assert.Equal(t, shared.TransactionStatusCompleted, rec.Status)
	assert.Equal(t, "salary", rec.Description)

	assert.Equal(t, int64(5000), f.balance(t, f.alice))
	assert.Equal(t, int64(1), f.count(t, f.alice))
	require.Len(t, f.store.Events(), 1)
	assert.Equal(t, rec.ID, f.store.Events()[0].TransactionID)
}

func TestWithdraw_DrainsThenRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.engine.Deposit(ctx, f.alice, 5000, "")
	require.NoError(t, err)

	res, err := f.engine.Withdraw(ctx, f.alice, 5000, "")
	require.NoError(t, err)
	assert.Zero(t, res.Balance)
	assert.Equal(t, shared.TransactionTypeWithdraw, res.Transaction.Type)
	assert.Equal(t, f.alice, *res.Transaction.FromWallet)
	assert.Nil(t, res.Transaction.ToWallet)

	_, err = f.engine.Withdraw(ctx, f.alice, 100, "")
	assert.ErrorIs(t, err, wallet.ErrInsufficientFunds)
	assert.Zero(t, f.balance(t, f.alice))
	assert.Equal(t, int64(2), f.count(t, f.alice))
}

func TestWithdraw_UnknownWalletLeavesNothingBehind(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Withdraw(context.Background(), f.bob, 100, "")
	assert.ErrorIs(t, err, wallet.ErrInsufficientFunds)

	_, err = f.engine.GetWallet(context.Background(), f.bob)
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound{}, "failed unit must not create the wallet")
}

func TestTransfer_MovesFunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.engine.Deposit(ctx, f.alice, 3000, "")
	require.NoError(t, err)

	res, err := f.engine.Transfer(ctx, f.alice, f.bob, 3000, "rent")
	require.NoError(t, err)
	assert.Zero(t, res.SenderBalance)
	assert.Equal(t, int64(3000), res.ReceiverBalance)
	assert.Equal(t, shared.TransactionTypeTransfer, res.Transaction.Type)
	assert.Equal(t, f.alice, *res.Transaction.FromWallet)
	assert.Equal(t, f.bob, *res.Transaction.ToWallet)

	assert.Zero(t, f.balance(t, f.alice))
	assert.Equal(t, int64(3000), f.balance(t, f.bob))
	assert.Equal(t, int64(1), f.count(t, f.bob))
}

func TestTransfer_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.engine.Deposit(ctx, f.alice, 1000, "")
	require.NoError(t, err)

	tests := []struct {
		name    string
		from    int64
		to      int64
		amount  int64
		wantErr error
	}{
		{"invalid amount wins over self transfer", f.alice, f.alice, 0, wallet.ErrInvalidAmount},
		{"negative amount", f.alice, f.bob, -10, wallet.ErrInvalidAmount},
		{"self transfer", f.alice, f.alice, 10, wallet.ErrSelfTransfer},
		{"unknown receiver", f.alice, 999, 10, wallet.ErrReceiverNotFound{UserID: 999}},
		{"insufficient funds", f.alice, f.bob, 1001, wallet.ErrInsufficientFunds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.Transfer(ctx, tt.from, tt.to, tt.amount, "")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, int64(1000), f.balance(t, f.alice))
			assert.Zero(t, f.balance(t, f.bob))
			assert.Equal(t, int64(1), f.count(t, 0))
		})
	}
}

func TestInvalidAmounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Deposit(ctx, f.alice, 0, "")
	assert.ErrorIs(t, err, wallet.ErrInvalidAmount)
	_, err = f.engine.Withdraw(ctx, f.alice, -1, "")
	assert.ErrorIs(t, err, wallet.ErrInvalidAmount)
	assert.Zero(t, f.count(t, 0))
}

func TestConcurrentWithdrawals_ExactlyOneSucceeds(t *testing.T) {
	for run := 0; run < 20; run++ {
		f := newFixture(t)
		ctx := context.Background()
		_, err := f.engine.Deposit(ctx, f.alice, 100, "")
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		start := make(chan struct{})
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				_, errs[i] = f.engine.Withdraw(ctx, f.alice, 60, "")
			}(i)
		}
		close(start)
		wg.Wait()

		var ok, insufficient int
		for _, err := range errs {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, wallet.ErrInsufficientFunds):
				insufficient++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		require.Equal(t, 1, ok)
		require.Equal(t, 1, insufficient)
		require.Equal(t, int64(40), f.balance(t, f.alice))
	}
}

func TestConcurrentOpposingTransfers_ConserveMoney(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.engine.Deposit(ctx, f.alice, 10000, "")
	require.NoError(t, err)
	_, err = f.engine.Deposit(ctx, f.bob, 10000, "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = f.engine.Transfer(ctx, f.alice, f.bob, 150, "")
		}()
		go func() {
			defer wg.Done()
			_, _ = f.engine.Transfer(ctx, f.bob, f.alice, 100, "")
		}()
	}
	wg.Wait()

	a, b := f.balance(t, f.alice), f.balance(t, f.bob)
	assert.GreaterOrEqual(t, a, int64(0))
	assert.GreaterOrEqual(t, b, int64(0))
	assert.Equal(t, int64(20000), a+b)
}

// Random mixed workload: balances stay non-negative and their sum always
// equals deposits minus withdrawals.
func TestRandomWorkload_Invariants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	carol, err := f.store.AddUser("Carol", "carol@example.com", shared.RoleUser)
	require.NoError(t, err)
	users := []int64{f.alice, f.bob, carol.ID}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < 200; i++ {
				u := users[rng.Intn(len(users))]
				amount := int64(rng.Intn(500) + 1)
				switch rng.Intn(3) {
				case 0:
					_, _ = f.engine.Deposit(ctx, u, amount, "")
				case 1:
					_, _ = f.engine.Withdraw(ctx, u, amount, "")
				default:
					_, _ = f.engine.Transfer(ctx, u, users[rng.Intn(len(users))], amount, "")
				}
			}
		}(int64(g))
	}
	wg.Wait()

	var sum int64
	for _, u := range users {
		b := f.balance(t, u)
		assert.GreaterOrEqual(t, b, int64(0), fmt.Sprintf("user %d", u))
		sum += b
	}
	totals, err := f.store.Transactions().Totals(ctx)
	require.NoError(t, err)
	total, err := f.store.Wallets().SumBalances(ctx)
	require.NoError(t, err)
	assert.Equal(t, sum, total)
	assert.Equal(t, totals.Deposits-totals.Withdrawals, total)
}

func TestGetWallet_IdempotentReads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.engine.Deposit(ctx, f.alice, 700, "")
	require.NoError(t, err)

	first, err := f.engine.GetWallet(ctx, f.alice)
	require.NoError(t, err)
	second, err := f.engine.GetWallet(ctx, f.alice)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGuardTimeout_AbortsBeforeMutation(t *testing.T) {
	s := memory.NewStore()
	g := guard.New(20 * time.Millisecond)
	e := New(s, g, logger.Discard())
	ctx := context.Background()

	release, err := g.Acquire(ctx, 1)
	require.NoError(t, err)
	defer release()

	_, err = e.Deposit(ctx, 1, 100, "")
	assert.ErrorIs(t, err, guard.ErrAcquireTimeout)
	_, err = e.GetWallet(ctx, 1)
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound{})
}

// failingStore breaks the event write, the last step of every unit.
type failingStore struct {
	*memory.Store
	err error
}

func (s failingStore) ExecuteTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return s.Store.ExecuteTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return fn(ctx, failingTx{Tx: tx, err: s.err})
	})
}

type failingTx struct {
	store.Tx
	err error
}

func (t failingTx) Events() outbox.Recorder { return failingRecorder{t.err} }

type failingRecorder struct{ err error }

func (r failingRecorder) Record(context.Context, *ledger.Transaction) error { return r.err }

func TestStorageFailure_RollsBackWholeUnit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.engine.Deposit(ctx, f.alice, 1000, "")
	require.NoError(t, err)

	storageErr := errors.New("write failed")
	broken := New(failingStore{Store: f.store, err: storageErr}, guard.New(time.Second), logger.Discard())

	_, err = broken.Transfer(ctx, f.alice, f.bob, 400, "")
	require.ErrorIs(t, err, storageErr)
	_, err = broken.Withdraw(ctx, f.alice, 400, "")
	require.ErrorIs(t, err, storageErr)

	assert.Equal(t, int64(1000), f.balance(t, f.alice))
	_, err = f.engine.GetWallet(ctx, f.bob)
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound{})
	assert.Equal(t, int64(1), f.count(t, 0))
	assert.Len(t, f.store.Events(), 1)
}
