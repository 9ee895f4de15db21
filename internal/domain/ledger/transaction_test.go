package ledger

import (
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wallet-ledger/internal/domain/shared"
)

func TestConstructors(t *testing.T) {
	dep := NewDeposit(1, 500, "salary")
	assert.Equal(t, shared.TransactionTypeDeposit, dep.Type)
	assert.Nil(t, dep.FromWallet)
	require.NotNil(t, dep.ToWallet)
	assert.Equal(t, int64(1), *dep.ToWallet)
	assert.Equal(t, shared.TransactionStatusCompleted, dep.Status)
	assert.Equal(t, "salary", dep.Description)

	wd := NewWithdrawal(2, 300, "")
	assert.Equal(t, shared.TransactionTypeWithdraw, wd.Type)
	require.NotNil(t, wd.FromWallet)
	assert.Equal(t, int64(2), *wd.FromWallet)
	assert.Nil(t, wd.ToWallet)

	tr := NewTransfer(3, 4, 100, "rent")
	assert.Equal(t, shared.TransactionTypeTransfer, tr.Type)
	assert.Equal(t, int64(3), *tr.FromWallet)
	assert.Equal(t, int64(4), *tr.ToWallet)
	assert.Equal(t, int64(100), tr.Amount)
}

func TestTransaction_Involves(t *testing.T) {
	tr := NewTransfer(3, 4, 100, "")
	assert.True(t, tr.Involves(3))
	assert.True(t, tr.Involves(4))
	assert.False(t, tr.Involves(5))
	assert.False(t, NewDeposit(1, 1, "").Involves(2))
}

func TestNewer(t *testing.T) {
	now := time.Now()
	txs := []*Transaction{
		{ID: 1, CreatedAt: now.Add(-time.Minute)},
		{ID: 3, CreatedAt: now},
		{ID: 2, CreatedAt: now},
	}
	sort.SliceStable(txs, func(i, j int) bool { return Newer(txs[i], txs[j]) })

	assert.Equal(t, []int64{3, 2, 1}, []int64{txs[0].ID, txs[1].ID, txs[2].ID})
}

func TestTypedErrors(t *testing.T) {
	err := fmt.Errorf("archive: %w", ErrDuplicateTransaction{ID: 9})
	assert.True(t, errors.Is(err, ErrDuplicateTransaction{}))
	assert.True(t, errors.Is(err, ErrDuplicateTransaction{ID: 9}))
	assert.False(t, errors.Is(err, ErrDuplicateTransaction{ID: 10}))
	assert.False(t, errors.Is(err, ErrTransactionNotFound{}))

	assert.Equal(t, "transaction not found: 4", ErrTransactionNotFound{ID: 4}.Error())
	assert.True(t, errors.Is(ErrTransactionNotFound{ID: 4}, ErrTransactionNotFound{}))
}

func TestTransaction_Validate(t *testing.T) {
	withID := func(tx *Transaction) *Transaction {
		tx.ID = 9
		return tx
	}
	one, two := int64(1), int64(2)

	tests := []struct {
		name  string
		tx    *Transaction
		valid bool
	}{
		{name: "deposit", tx: withID(NewDeposit(1, 100, "")), valid: true},
		{name: "withdrawal", tx: withID(NewWithdrawal(1, 100, "")), valid: true},
		{name: "transfer", tx: withID(NewTransfer(1, 2, 100, "")), valid: true},
		{name: "missing id", tx: NewDeposit(1, 100, "")},
		{name: "zero amount", tx: withID(NewDeposit(1, 0, ""))},
		{name: "unknown type", tx: &Transaction{ID: 9, Type: "refund", ToWallet: &one, Amount: 5}},
		{name: "deposit with source", tx: &Transaction{ID: 9, Type: shared.TransactionTypeDeposit, FromWallet: &one, ToWallet: &two, Amount: 5}},
		{name: "withdrawal without source", tx: &Transaction{ID: 9, Type: shared.TransactionTypeWithdraw, ToWallet: &one, Amount: 5}},
		{name: "self transfer", tx: withID(NewTransfer(1, 1, 100, ""))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tx.Validate()
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrMalformedTransaction)
		})
	}
}
