package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wallet-ledger/internal/domain/money"
	"github.com/wallet-ledger/internal/domain/wallet"
	"github.com/wallet-ledger/internal/guard"
)

// Error codes returned in ErrorInfo.Code
const (
	CodeInvalidAmount     = "INVALID_AMOUNT"
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	CodeSelfTransfer      = "SELF_TRANSFER"
	CodeBalanceOverflow   = "BALANCE_OVERFLOW"
	CodeReceiverNotFound  = "RECEIVER_NOT_FOUND"
	CodeWalletNotFound    = "WALLET_NOT_FOUND"
	CodeLockTimeout       = "LOCK_TIMEOUT"
)

// RespondDomainError maps ledger errors to HTTP. Anything unknown is logged
// and reported as 500 without details.
func RespondDomainError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, wallet.ErrInvalidAmount):
		RespondWithError(c, http.StatusBadRequest, CodeInvalidAmount, err.Error())
	case errors.Is(err, wallet.ErrInsufficientFunds):
		RespondWithError(c, http.StatusUnprocessableEntity, CodeInsufficientFunds, "Insufficient balance")
	case errors.Is(err, wallet.ErrSelfTransfer):
		RespondWithError(c, http.StatusUnprocessableEntity, CodeSelfTransfer, "You cannot transfer to yourself")
	case errors.Is(err, wallet.ErrBalanceOverflow):
		RespondWithError(c, http.StatusUnprocessableEntity, CodeBalanceOverflow, err.Error())
	case errors.Is(err, wallet.ErrReceiverNotFound{}):
		RespondWithError(c, http.StatusNotFound, CodeReceiverNotFound, err.Error())
	case errors.Is(err, wallet.ErrWalletNotFound{}):
		RespondWithError(c, http.StatusNotFound, CodeWalletNotFound, err.Error())
	case errors.Is(err, guard.ErrAcquireTimeout):
		RespondWithError(c, http.StatusServiceUnavailable, CodeLockTimeout, "Wallet is busy, please retry")
	default:
		logger.Error("request failed", "path", c.FullPath(), "error", err)
		_ = c.Error(err)
		RespondInternalError(c)
	}
}

// parseAmount converts a request amount into minor units. Positivity is
// checked by the engine.
func parseAmount(amount *decimal.Decimal) (int64, error) {
	if amount == nil {
		return 0, fmt.Errorf("%w: amount is required", wallet.ErrInvalidAmount)
	}
	minor, err := money.FromDecimal(*amount)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", wallet.ErrInvalidAmount, err)
	}
	return minor, nil
}
