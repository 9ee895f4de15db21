// Package user is the read-only view of the externally managed user directory.
package user

import (
	"context"
	"strconv"
	"time"

	"github.com/wallet-ledger/internal/domain/shared"
)

type User struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      shared.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == shared.RoleAdmin
}

// Directory resolves users. The ledger never writes users.
type Directory interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// ErrUserNotFound is returned by Directory lookups.
type ErrUserNotFound struct {
	ID    int64
	Email string
}

func (e ErrUserNotFound) Error() string {
	if e.Email != "" {
		return "user not found: " + e.Email
	}
	return "user not found: " + strconv.FormatInt(e.ID, 10)
}

// Is matches any ErrUserNotFound when the target carries no key.
func (e ErrUserNotFound) Is(target error) bool {
	t, ok := target.(ErrUserNotFound)
	if !ok {
		return false
	}
	if t.ID == 0 && t.Email == "" {
		return true
	}
	return t.ID == e.ID && t.Email == e.Email
}
