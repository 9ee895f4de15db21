package handler

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wallet-ledger/internal/api_gateway/service"
)

// AdminHandler serves the administrator routes. Access control is done by
// middleware.RequireAdmin.
type AdminHandler struct {
	walletService    service.WalletService
	reportingService service.ReportingService
	logger           *slog.Logger
}

func NewAdminHandler(logger *slog.Logger, walletService service.WalletService, reportingService service.ReportingService) *AdminHandler {
	return &AdminHandler{
		walletService:    walletService,
		reportingService: reportingService,
		logger:           logger,
	}
}

// Users lists every user, newest first, with a zero balance when they have no wallet
func (h *AdminHandler) Users(c *gin.Context) {
	owned, err := h.reportingService.WalletsWithOwners(c.Request.Context())
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}
	RespondOK(c, mapOwnedToResponse(owned))
}

// Wallet returns the wallet of any user, 404 when it does not exist
func (h *AdminHandler) Wallet(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		RespondBadRequest(c, "Invalid user ID")
		return
	}

	w, err := h.walletService.GetWallet(c.Request.Context(), userID)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}
	RespondOK(c, mapWalletToResponse(w))
}

// Summary reports the total system balance and whether it reconciles with
// the ledger history
func (h *AdminHandler) Summary(c *gin.Context) {
	rec, err := h.reportingService.Summary(c.Request.Context())
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}
	RespondOK(c, mapSummaryToResponse(rec))
}
