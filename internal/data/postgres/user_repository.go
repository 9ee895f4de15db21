package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/wallet-ledger/internal/domain/user"
	"github.com/wallet-ledger/internal/platform/persistence"
)

// UserRepository reads the users table owned by the profile system.
type UserRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewUserRepository(logger *slog.Logger, db *persistence.PostgresDB) *UserRepository {
	return &UserRepository{querier: db.Pool(), logger: logger}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	query := `
		SELECT id, name, email, role, created_at
		FROM users
		WHERE id = $1`
	return r.one(ctx, query, id, user.ErrUserNotFound{ID: id})
}

// GetByEmail matches case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `
		SELECT id, name, email, role, created_at
		FROM users
		WHERE LOWER(email) = $1`
	return r.one(ctx, query, strings.ToLower(strings.TrimSpace(email)), user.ErrUserNotFound{Email: email})
}

func (r *UserRepository) one(ctx context.Context, query string, arg any, notFound error) (*user.User, error) {
	var u user.User
	err := r.querier.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound
		}
		r.logger.Error("failed to get user", "key", arg, "error", err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
