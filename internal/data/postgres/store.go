package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/wallet-ledger/internal/domain/ledger"
	"github.com/wallet-ledger/internal/domain/outbox"
	"github.com/wallet-ledger/internal/domain/shared"
	"github.com/wallet-ledger/internal/domain/store"
	"github.com/wallet-ledger/internal/domain/user"
	"github.com/wallet-ledger/internal/domain/wallet"
	"github.com/wallet-ledger/internal/platform/persistence"
)

// pool is what the store needs from *pgxpool.Pool.
type pool interface {
	persistence.Querier
	persistence.TxStarter
}

// Store is the PostgreSQL ledger store. Each atomic unit is one database
// transaction; wallet rows are locked with SELECT ... FOR UPDATE.
type Store struct {
	querier      persistence.Querier
	starter      persistence.TxStarter
	wallets      *WalletRepository
	transactions *TransactionRepository
	outbox       *OutboxRepository
	users        *UserRepository
}

var (
	_ store.Store = (*Store)(nil)
	_ store.Tx    = (*unit)(nil)
)

func NewStore(logger *slog.Logger, db *persistence.PostgresDB) *Store {
	return newStore(logger, db.Pool())
}

func newStore(logger *slog.Logger, p pool) *Store {
	return &Store{
		querier:      p,
		starter:      p,
		wallets:      &WalletRepository{querier: p, logger: logger},
		transactions: &TransactionRepository{querier: p, logger: logger},
		outbox:       &OutboxRepository{querier: p, logger: logger},
		users:        &UserRepository{querier: p, logger: logger},
	}
}

func (s *Store) ExecuteTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return persistence.ExecuteTx(ctx, s.starter, func(tx pgx.Tx) error {
		return fn(ctx, &unit{
			wallets:      s.wallets.WithTx(tx),
			transactions: s.transactions.WithTx(tx),
			outbox:       s.outbox.WithTx(tx),
		})
	})
}

func (s *Store) Wallets() wallet.Reader      { return s.wallets }
func (s *Store) Transactions() ledger.Reader { return s.transactions }
func (s *Store) Users() user.Directory       { return s.users }
func (s *Store) Outbox() *OutboxRepository   { return s.outbox }

// BalanceSheet runs as one statement so both sums come from the same snapshot.
func (s *Store) BalanceSheet(ctx context.Context) (store.BalanceSheet, error) {
	query := `
		SELECT
			(SELECT COALESCE(SUM(balance), 0) FROM wallets)::BIGINT,
			COALESCE(SUM(amount) FILTER (WHERE type = $1), 0)::BIGINT,
			COALESCE(SUM(amount) FILTER (WHERE type = $2), 0)::BIGINT
		FROM transactions
		WHERE status = $3`

	var sheet store.BalanceSheet
	err := s.querier.QueryRow(ctx, query,
		shared.TransactionTypeDeposit,
		shared.TransactionTypeWithdraw,
		shared.TransactionStatusCompleted,
	).Scan(&sheet.TotalBalance, &sheet.Deposits, &sheet.Withdrawals)
	if err != nil {
		s.transactions.logger.Error("failed to read balance sheet", "error", err)
		return store.BalanceSheet{}, fmt.Errorf("failed to read balance sheet: %w", err)
	}
	return sheet, nil
}

type unit struct {
	wallets      *WalletRepository
	transactions *TransactionRepository
	outbox       *OutboxRepository
}

func (u *unit) Wallets() wallet.Repository      { return u.wallets }
func (u *unit) Transactions() ledger.Repository { return u.transactions }
func (u *unit) Events() outbox.Recorder         { return u.outbox }
