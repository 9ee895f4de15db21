package service

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/wallet-ledger/internal/domain/ledger"
	"github.com/wallet-ledger/internal/domain/user"
	"github.com/wallet-ledger/internal/domain/wallet"
	"github.com/wallet-ledger/internal/engine"
	"github.com/wallet-ledger/internal/reporting"
)

type MockLedgerEngine struct {
	mock.Mock
}

func (m *MockLedgerEngine) Deposit(ctx context.Context, userID, amount int64, description string) (*engine.Result, error) {
	args := m.Called(ctx, userID, amount, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.Result), args.Error(1)
}

func (m *MockLedgerEngine) Withdraw(ctx context.Context, userID, amount int64, description string) (*engine.Result, error) {
	args := m.Called(ctx, userID, amount, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.Result), args.Error(1)
}

func (m *MockLedgerEngine) Transfer(ctx context.Context, fromUserID, toUserID, amount int64, description string) (*engine.TransferResult, error) {
	args := m.Called(ctx, fromUserID, toUserID, amount, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.TransferResult), args.Error(1)
}

func (m *MockLedgerEngine) GetWallet(ctx context.Context, userID int64) (*wallet.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Wallet), args.Error(1)
}

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) GetByID(ctx context.Context, id int64) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockDirectory) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

type MockReportingView struct {
	mock.Mock
}

func (m *MockReportingView) TotalSystemBalance(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReportingView) TransactionsFor(ctx context.Context, userID int64, page reporting.Page) ([]*ledger.Transaction, int64, error) {
	args := m.Called(ctx, userID, page)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*ledger.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockReportingView) AllTransactions(ctx context.Context, page reporting.Page) ([]*ledger.Transaction, int64, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*ledger.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockReportingView) AllWalletsWithOwners(ctx context.Context) ([]*wallet.Owned, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*wallet.Owned), args.Error(1)
}

func (m *MockReportingView) Reconcile(ctx context.Context) (*reporting.Reconciliation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reporting.Reconciliation), args.Error(1)
}

var (
	_ LedgerEngine   = (*MockLedgerEngine)(nil)
	_ user.Directory = (*MockDirectory)(nil)
	_ ReportingView  = (*MockReportingView)(nil)
)
