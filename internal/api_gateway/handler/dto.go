package handler

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wallet-ledger/internal/domain/ledger"
	"github.com/wallet-ledger/internal/domain/money"
	"github.com/wallet-ledger/internal/domain/wallet"
	"github.com/wallet-ledger/internal/reporting"
)

// AmountRequest is the body of deposit, top-up and withdraw.
// Amount accepts a JSON string ("12.50") or number.
type AmountRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Description string           `json:"description" binding:"max=255"`
}

// TransferRequest names the receiver by ID or by email
type TransferRequest struct {
	ToUserID    int64            `json:"to_user_id" binding:"omitempty,gt=0"`
	ToEmail     string           `json:"to_email" binding:"omitempty,email"`
	Amount      *decimal.Decimal `json:"amount"`
	Description string           `json:"description" binding:"max=255"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=20" binding:"min=1,max=100"`
}

type WalletResponse struct {
	UserID    int64  `json:"user_id"`
	Balance   string `json:"balance"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// WalletOverviewResponse is returned by GET /wallet. Wallet is null until the
// first operation. Administrators also receive the system total and all users.
type WalletOverviewResponse struct {
	Wallet       *WalletResponse       `json:"wallet"`
	Balance      string                `json:"balance"`
	TotalBalance string                `json:"total_balance,omitempty"`
	Users        []UserBalanceResponse `json:"users,omitempty"`
}

type UserBalanceResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Balance   string `json:"balance"`
	CreatedAt string `json:"created_at"`
}

// PartyResponse names the user on one side of a listed transaction.
type PartyResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TransactionResponse carries from_user and to_user on listings; they are
// null for the missing side and on operation results.
type TransactionResponse struct {
	ID          int64          `json:"id"`
	Type        string         `json:"type"`
	FromUserID  *int64         `json:"from_user_id"`
	ToUserID    *int64         `json:"to_user_id"`
	FromUser    *PartyResponse `json:"from_user"`
	ToUser      *PartyResponse `json:"to_user"`
	Amount      string         `json:"amount"`
	Status      string         `json:"status"`
	Description string         `json:"description,omitempty"`
	CreatedAt   string         `json:"created_at"`
}

// OperationResponse is returned by deposit and withdraw
type OperationResponse struct {
	Balance     string              `json:"balance"`
	Transaction TransactionResponse `json:"transaction"`
}

type TransferResponse struct {
	SenderBalance   string              `json:"sender_balance"`
	ReceiverBalance string              `json:"receiver_balance"`
	Transaction     TransactionResponse `json:"transaction"`
}

type SummaryResponse struct {
	TotalBalance string `json:"total_balance"`
	Deposits     string `json:"deposits"`
	Withdrawals  string `json:"withdrawals"`
	Expected     string `json:"expected"`
	Balanced     bool   `json:"balanced"`
}

func mapWalletToResponse(w *wallet.Wallet) *WalletResponse {
	return &WalletResponse{
		UserID:    w.UserID,
		Balance:   money.Format(w.Balance),
		CreatedAt: w.CreatedAt.Format(time.RFC3339),
		UpdatedAt: w.UpdatedAt.Format(time.RFC3339),
	}
}

func mapOwnedToResponse(owned []*wallet.Owned) []UserBalanceResponse {
	users := make([]UserBalanceResponse, 0, len(owned))
	for _, o := range owned {
		users = append(users, UserBalanceResponse{
			ID:        o.UserID,
			Name:      o.Name,
			Email:     o.Email,
			Role:      o.Role,
			Balance:   money.Format(o.Balance),
			CreatedAt: o.CreatedAt.Format(time.RFC3339),
		})
	}
	return users
}

func mapTransactionToResponse(t *ledger.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          t.ID,
		Type:        string(t.Type),
		FromUserID:  t.FromWallet,
		ToUserID:    t.ToWallet,
		FromUser:    mapPartyToResponse(t.FromUser),
		ToUser:      mapPartyToResponse(t.ToUser),
		Amount:      money.Format(t.Amount),
		Status:      string(t.Status),
		Description: t.Description,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
}

func mapPartyToResponse(p *ledger.Party) *PartyResponse {
	if p == nil {
		return nil
	}
	return &PartyResponse{ID: p.ID, Name: p.Name, Email: p.Email}
}

func mapTransactionsToResponse(txs []*ledger.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, mapTransactionToResponse(t))
	}
	return out
}

func mapSummaryToResponse(r *reporting.Reconciliation) SummaryResponse {
	return SummaryResponse{
		TotalBalance: money.Format(r.TotalBalance),
		Deposits:     money.Format(r.Deposits),
		Withdrawals:  money.Format(r.Withdrawals),
		Expected:     money.Format(r.Expected),
		Balanced:     r.Balanced,
	}
}
