package service

import (
	"context"
	"log/slog"

	"github.com/wallet-ledger/internal/domain/ledger"
	"github.com/wallet-ledger/internal/domain/wallet"
	"github.com/wallet-ledger/internal/reporting"
)

// ReportingServiceImpl implements the ReportingService interface
type ReportingServiceImpl struct {
	view   ReportingView
	logger *slog.Logger
}

// NewReportingService creates a new reporting service
func NewReportingService(logger *slog.Logger, view ReportingView) ReportingService {
	return &ReportingServiceImpl{
		view:   view,
		logger: logger,
	}
}

func (s *ReportingServiceImpl) TransactionsFor(ctx context.Context, userID int64, page, perPage int) ([]*ledger.Transaction, int64, error) {
	return s.view.TransactionsFor(ctx, userID, reporting.Page{Number: page, Size: perPage})
}

func (s *ReportingServiceImpl) AllTransactions(ctx context.Context, page, perPage int) ([]*ledger.Transaction, int64, error) {
	return s.view.AllTransactions(ctx, reporting.Page{Number: page, Size: perPage})
}

func (s *ReportingServiceImpl) TotalBalance(ctx context.Context) (int64, error) {
	return s.view.TotalSystemBalance(ctx)
}

func (s *ReportingServiceImpl) WalletsWithOwners(ctx context.Context) ([]*wallet.Owned, error) {
	return s.view.AllWalletsWithOwners(ctx)
}

// Summary logs an error when the ledger does not reconcile; the report is
// returned either way.
func (s *ReportingServiceImpl) Summary(ctx context.Context) (*reporting.Reconciliation, error) {
	rec, err := s.view.Reconcile(ctx)
	if err != nil {
		s.logger.Error("failed to reconcile ledger", "error", err)
		return nil, err
	}
	if !rec.Balanced {
		s.logger.Error("ledger out of balance",
			"total_balance", rec.TotalBalance,
			"expected", rec.Expected,
			"deposits", rec.Deposits,
			"withdrawals", rec.Withdrawals,
		)
	}
	return rec, nil
}
