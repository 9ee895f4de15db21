package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/wallet-ledger/internal/domain/ledger"
	"github.com/wallet-ledger/internal/domain/shared"
	"github.com/wallet-ledger/internal/platform/persistence"
)

// TransactionRepository implements ledger.Repository for PostgreSQL.
// Rows are only ever inserted.
type TransactionRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) *TransactionRepository {
	return &TransactionRepository{querier: db.Pool(), logger: logger}
}

func (r *TransactionRepository) WithTx(tx pgx.Tx) *TransactionRepository {
	return &TransactionRepository{querier: tx, logger: r.logger}
}

func (r *TransactionRepository) Append(ctx context.Context, t *ledger.Transaction) error {
	query := `
		INSERT INTO transactions (type, from_wallet, to_wallet, amount, status, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.querier.QueryRow(ctx, query,
		t.Type,
		t.FromWallet,
		t.ToWallet,
		t.Amount,
		t.Status,
		nullableText(t.Description),
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		r.logger.Error("failed to append transaction", "type", string(t.Type), "amount", t.Amount, "error", err)
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

// whereClause renders the user filter; its only placeholder is $1.
func whereClause(filter ledger.Filter) (string, []any) {
	if filter.UserID == 0 {
		return "", nil
	}
	return "WHERE from_wallet = $1 OR to_wallet = $1", []any{filter.UserID}
}

// List resolves both parties from users. A user missing from the directory
// leaves its side nil.
func (r *TransactionRepository) List(ctx context.Context, filter ledger.Filter) ([]*ledger.Transaction, error) {
	where, args := whereClause(filter)

	var sb strings.Builder
	sb.WriteString(`
		SELECT t.id, t.type, t.from_wallet, t.to_wallet, t.amount, t.status, t.description, t.created_at,
			fu.name, fu.email, tu.name, tu.email
		FROM transactions t
		LEFT JOIN users fu ON fu.id = t.from_wallet
		LEFT JOIN users tu ON tu.id = t.to_wallet `)
	sb.WriteString(where)
	sb.WriteString(`
		ORDER BY t.created_at DESC, t.id DESC`)
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		fmt.Fprintf(&sb, "\n\t\tLIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.querier.Query(ctx, sb.String(), args...)
	if err != nil {
		r.logger.Error("failed to list transactions", "user_id", filter.UserID, "error", err)
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []*ledger.Transaction
	for rows.Next() {
		var (
			t                  ledger.Transaction
			description        *string
			fromName, fromMail *string
			toName, toMail     *string
		)
		if err := rows.Scan(&t.ID, &t.Type, &t.FromWallet, &t.ToWallet, &t.Amount, &t.Status, &description, &t.CreatedAt,
			&fromName, &fromMail, &toName, &toMail); err != nil {
			r.logger.Error("failed to scan transaction", "error", err)
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if description != nil {
			t.Description = *description
		}
		t.FromUser = party(t.FromWallet, fromName, fromMail)
		t.ToUser = party(t.ToWallet, toName, toMail)
		txs = append(txs, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txs, nil
}

func party(id *int64, name, email *string) *ledger.Party {
	if id == nil || name == nil {
		return nil
	}
	p := &ledger.Party{ID: *id, Name: *name}
	if email != nil {
		p.Email = *email
	}
	return p
}

func (r *TransactionRepository) Count(ctx context.Context, filter ledger.Filter) (int64, error) {
	where, args := whereClause(filter)
	query := "SELECT COUNT(*) FROM transactions " + where

	var n int64
	if err := r.querier.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		r.logger.Error("failed to count transactions", "user_id", filter.UserID, "error", err)
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return n, nil
}

func (r *TransactionRepository) Totals(ctx context.Context) (ledger.Totals, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE type = $1), 0)::BIGINT,
			COALESCE(SUM(amount) FILTER (WHERE type = $2), 0)::BIGINT
		FROM transactions
		WHERE status = $3`

	var totals ledger.Totals
	err := r.querier.QueryRow(ctx, query,
		shared.TransactionTypeDeposit,
		shared.TransactionTypeWithdraw,
		shared.TransactionStatusCompleted,
	).Scan(&totals.Deposits, &totals.Withdrawals)
	if err != nil {
		r.logger.Error("failed to total transactions", "error", err)
		return ledger.Totals{}, fmt.Errorf("failed to total transactions: %w", err)
	}
	return totals, nil
}

func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
