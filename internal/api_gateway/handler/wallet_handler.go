package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/wallet-ledger/internal/api_gateway/middleware"
	"github.com/wallet-ledger/internal/api_gateway/service"
	"github.com/wallet-ledger/internal/domain/money"
	"github.com/wallet-ledger/internal/domain/wallet"
)

// WalletHandler serves the caller's own wallet
type WalletHandler struct {
	walletService    service.WalletService
	reportingService service.ReportingService
	logger           *slog.Logger
}

func NewWalletHandler(logger *slog.Logger, walletService service.WalletService, reportingService service.ReportingService) *WalletHandler {
	return &WalletHandler{
		walletService:    walletService,
		reportingService: reportingService,
		logger:           logger,
	}
}

// Get returns the caller's wallet, or a zero balance when it does not exist yet
func (h *WalletHandler) Get(c *gin.Context) {
	caller, ok := middleware.GetIdentity(c)
	if !ok {
		RespondUnauthorized(c)
		return
	}
	ctx := c.Request.Context()

	resp := WalletOverviewResponse{Balance: money.Format(0)}
	w, err := h.walletService.GetWallet(ctx, caller.UserID)
	switch {
	case err == nil:
		resp.Wallet = mapWalletToResponse(w)
		resp.Balance = resp.Wallet.Balance
	case errors.Is(err, wallet.ErrWalletNotFound{}):
	default:
		RespondDomainError(c, h.logger, err)
		return
	}

	if caller.IsAdmin() {
		total, err := h.reportingService.TotalBalance(ctx)
		if err != nil {
			RespondDomainError(c, h.logger, err)
			return
		}
		owned, err := h.reportingService.WalletsWithOwners(ctx)
		if err != nil {
			RespondDomainError(c, h.logger, err)
			return
		}
		resp.TotalBalance = money.Format(total)
		resp.Users = mapOwnedToResponse(owned)
	}

	RespondOK(c, resp)
}

// Deposit credits the caller's wallet. It also serves the top-up route.
func (h *WalletHandler) Deposit(c *gin.Context) {
	caller, req, amount, ok := h.bindAmount(c)
	if !ok {
		return
	}

	res, err := h.walletService.Deposit(c.Request.Context(), caller.UserID, amount, req.Description)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, OperationResponse{
		Balance:     money.Format(res.Balance),
		Transaction: mapTransactionToResponse(res.Transaction),
	})
}

func (h *WalletHandler) Withdraw(c *gin.Context) {
	caller, req, amount, ok := h.bindAmount(c)
	if !ok {
		return
	}

	res, err := h.walletService.Withdraw(c.Request.Context(), caller.UserID, amount, req.Description)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, OperationResponse{
		Balance:     money.Format(res.Balance),
		Transaction: mapTransactionToResponse(res.Transaction),
	})
}

func (h *WalletHandler) Transfer(c *gin.Context) {
	caller, ok := middleware.GetIdentity(c)
	if !ok {
		RespondUnauthorized(c)
		return
	}

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Info("invalid transfer request", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if req.ToUserID == 0 && req.ToEmail == "" {
		RespondBadRequest(c, "to_user_id or to_email is required")
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	res, err := h.walletService.Transfer(c.Request.Context(), caller.UserID,
		service.Recipient{UserID: req.ToUserID, Email: req.ToEmail}, amount, req.Description)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, TransferResponse{
		SenderBalance:   money.Format(res.SenderBalance),
		ReceiverBalance: money.Format(res.ReceiverBalance),
		Transaction:     mapTransactionToResponse(res.Transaction),
	})
}

func (h *WalletHandler) bindAmount(c *gin.Context) (middleware.Identity, AmountRequest, int64, bool) {
	var req AmountRequest
	caller, ok := middleware.GetIdentity(c)
	if !ok {
		RespondUnauthorized(c)
		return caller, req, 0, false
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Info("invalid request body", "path", c.FullPath(), "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return caller, req, 0, false
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return caller, req, 0, false
	}
	return caller, req, amount, true
}
