package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/wallet-ledger/internal/domain/user"
	"github.com/wallet-ledger/internal/domain/wallet"
	"github.com/wallet-ledger/internal/engine"
)

// WalletServiceImpl implements the WalletService interface
type WalletServiceImpl struct {
	engine LedgerEngine
	users  user.Directory
	logger *slog.Logger
}

// NewWalletService creates a new wallet service
func NewWalletService(logger *slog.Logger, ledgerEngine LedgerEngine, users user.Directory) WalletService {
	return &WalletServiceImpl{
		engine: ledgerEngine,
		users:  users,
		logger: logger,
	}
}

func (s *WalletServiceImpl) GetWallet(ctx context.Context, userID int64) (*wallet.Wallet, error) {
	return s.engine.GetWallet(ctx, userID)
}

func (s *WalletServiceImpl) Deposit(ctx context.Context, userID, amount int64, description string) (*engine.Result, error) {
	return s.engine.Deposit(ctx, userID, amount, strings.TrimSpace(description))
}

func (s *WalletServiceImpl) Withdraw(ctx context.Context, userID, amount int64, description string) (*engine.Result, error) {
	return s.engine.Withdraw(ctx, userID, amount, strings.TrimSpace(description))
}

// Transfer looks the recipient up by email when no ID is given. The engine
// still checks that the resolved ID exists.
func (s *WalletServiceImpl) Transfer(ctx context.Context, fromUserID int64, to Recipient, amount int64, description string) (*engine.TransferResult, error) {
	toUserID := to.UserID
	if toUserID == 0 {
		email := strings.TrimSpace(to.Email)
		if email == "" {
			return nil, wallet.ErrReceiverNotFound{}
		}
		receiver, err := s.users.GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, user.ErrUserNotFound{}) {
				s.logger.Info("transfer receiver not found", "email", email)
				return nil, wallet.ErrReceiverNotFound{Email: email}
			}
			s.logger.Error("failed to resolve transfer receiver", "email", email, "error", err)
			return nil, err
		}
		toUserID = receiver.ID
	}

	return s.engine.Transfer(ctx, fromUserID, toUserID, amount, strings.TrimSpace(description))
}
