package service

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/wallet-ledger/internal/domain/ledger"
)

type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) List(ctx context.Context, filter ledger.Filter) ([]*ledger.Transaction, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Transaction), args.Error(1)
}

func (m *MockArchive) Count(ctx context.Context, filter ledger.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockArchive) Totals(ctx context.Context) (ledger.Totals, error) {
	args := m.Called(ctx)
	return args.Get(0).(ledger.Totals), args.Error(1)
}

func (m *MockArchive) Insert(ctx context.Context, t *ledger.Transaction) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockArchive) GetByID(ctx context.Context, id int64) (*ledger.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) Archive(ctx context.Context, t *ledger.Transaction) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}
