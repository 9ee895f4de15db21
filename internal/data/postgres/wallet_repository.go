// Package postgres implements the ledger store on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/wallet-ledger/internal/domain/wallet"
	"github.com/wallet-ledger/internal/platform/persistence"
)

// checkViolation is the SQLSTATE raised when balance >= 0 would break.
const checkViolation = "23514"

// WalletRepository implements wallet.Repository for PostgreSQL
type WalletRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewWalletRepository(logger *slog.Logger, db *persistence.PostgresDB) *WalletRepository {
	return &WalletRepository{querier: db.Pool(), logger: logger}
}

// WithTx returns a copy bound to tx.
func (r *WalletRepository) WithTx(tx pgx.Tx) *WalletRepository {
	return &WalletRepository{querier: tx, logger: r.logger}
}

const selectWallet = `
		SELECT user_id, balance, created_at, updated_at
		FROM wallets
		WHERE user_id = $1`

func (r *WalletRepository) GetByUserID(ctx context.Context, userID int64) (*wallet.Wallet, error) {
	return r.fetch(ctx, selectWallet, userID, "get wallet")
}

// GetOrCreate relies on the primary key to collapse concurrent first uses
// into a single row.
func (r *WalletRepository) GetOrCreate(ctx context.Context, userID int64) (*wallet.Wallet, error) {
	query := `
		INSERT INTO wallets (user_id, balance)
		VALUES ($1, 0)
		ON CONFLICT (user_id) DO NOTHING`

	if _, err := r.querier.Exec(ctx, query, userID); err != nil {
		r.logger.Error("failed to create wallet", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return r.fetch(ctx, selectWallet, userID, "get wallet")
}

// LockForUpdate takes a row lock held until the surrounding transaction ends.
func (r *WalletRepository) LockForUpdate(ctx context.Context, userID int64) (*wallet.Wallet, error) {
	return r.fetch(ctx, selectWallet+"\n\t\tFOR UPDATE", userID, "lock wallet")
}

func (r *WalletRepository) fetch(ctx context.Context, query string, userID int64, op string) (*wallet.Wallet, error) {
	var w wallet.Wallet
	err := r.querier.QueryRow(ctx, query, userID).Scan(&w.UserID, &w.Balance, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, wallet.ErrWalletNotFound{UserID: userID}
		}
		r.logger.Error("failed to "+op, "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return &w, nil
}

func (r *WalletRepository) UpdateBalance(ctx context.Context, userID int64, newBalance int64) error {
	query := `
		UPDATE wallets
		SET balance = $1, updated_at = NOW()
		WHERE user_id = $2`

	result, err := r.querier.Exec(ctx, query, newBalance, userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == checkViolation {
			return fmt.Errorf("failed to update balance: %w", wallet.ErrInsufficientFunds)
		}
		r.logger.Error("failed to update balance", "user_id", userID, "error", err)
		return fmt.Errorf("failed to update balance: %w", err)
	}
	if result.RowsAffected() == 0 {
		return wallet.ErrWalletNotFound{UserID: userID}
	}
	return nil
}

func (r *WalletRepository) SumBalances(ctx context.Context) (int64, error) {
	var total int64
	query := `SELECT COALESCE(SUM(balance), 0)::BIGINT FROM wallets`
	if err := r.querier.QueryRow(ctx, query).Scan(&total); err != nil {
		r.logger.Error("failed to sum balances", "error", err)
		return 0, fmt.Errorf("failed to sum balances: %w", err)
	}
	return total, nil
}

// ListWithOwners returns every user, newest first, with a zero balance for
// users that never used their wallet.
func (r *WalletRepository) ListWithOwners(ctx context.Context) ([]*wallet.Owned, error) {
	query := `
		SELECT u.id, u.name, u.email, u.role, COALESCE(w.balance, 0)::BIGINT, u.created_at
		FROM users u
		LEFT JOIN wallets w ON w.user_id = u.id
		ORDER BY u.created_at DESC, u.id DESC`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("failed to list wallets", "error", err)
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	defer rows.Close()

	var owned []*wallet.Owned
	for rows.Next() {
		var o wallet.Owned
		if err := rows.Scan(&o.UserID, &o.Name, &o.Email, &o.Role, &o.Balance, &o.CreatedAt); err != nil {
			r.logger.Error("failed to scan wallet owner", "error", err)
			return nil, fmt.Errorf("failed to scan wallet owner: %w", err)
		}
		owned = append(owned, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wallets: %w", err)
	}
	return owned, nil
}
