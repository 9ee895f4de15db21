package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/wallet-ledger/internal/api_gateway/middleware"
	"github.com/wallet-ledger/internal/api_gateway/service"
)

// TransactionHandler serves ledger history
type TransactionHandler struct {
	reportingService service.ReportingService
	logger           *slog.Logger
}

func NewTransactionHandler(logger *slog.Logger, reportingService service.ReportingService) *TransactionHandler {
	return &TransactionHandler{
		reportingService: reportingService,
		logger:           logger,
	}
}

// List returns the caller's transactions, newest first. Administrators see
// every transaction.
func (h *TransactionHandler) List(c *gin.Context) {
	caller, ok := middleware.GetIdentity(c)
	if !ok {
		RespondUnauthorized(c)
		return
	}
	if caller.IsAdmin() {
		h.listAll(c)
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	txs, total, err := h.reportingService.TransactionsFor(c.Request.Context(), caller.UserID, pagination.Page, pagination.PerPage)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	RespondWithPaginatedData(c, mapTransactionsToResponse(txs), pagination.Page, pagination.PerPage, int(total))
}

// ListAll returns every transaction, newest first
func (h *TransactionHandler) ListAll(c *gin.Context) {
	h.listAll(c)
}

func (h *TransactionHandler) listAll(c *gin.Context) {
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	txs, total, err := h.reportingService.AllTransactions(c.Request.Context(), pagination.Page, pagination.PerPage)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	RespondWithPaginatedData(c, mapTransactionsToResponse(txs), pagination.Page, pagination.PerPage, int(total))
}
