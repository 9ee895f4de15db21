package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wallet-ledger/internal/domain/shared"
	"github.com/wallet-ledger/internal/domain/user"
)

const (
	// UserIDHeader carries the caller authenticated by the upstream gateway.
	UserIDHeader = "X-User-ID"

	identityKey = "identity"
)

// Identity is the caller of a request.
type Identity struct {
	UserID int64
	Name   string
	Email  string
	Role   shared.Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == shared.RoleAdmin
}

// RequireIdentity resolves X-User-ID against the user directory and aborts
// with 401 when it is missing, malformed or unknown. The role always comes
// from the directory.
func RequireIdentity(users user.Directory, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(UserIDHeader)
		userID, err := strconv.ParseInt(raw, 10, 64)
		if raw == "" || err != nil || userID <= 0 {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid caller identity")
			return
		}

		u, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, user.ErrUserNotFound{}) {
				abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Unknown caller")
				return
			}
			logger.Error("failed to resolve caller", "user_id", userID, "error", err)
			abortWithError(c, http.StatusInternalServerError,
				"INTERNAL_SERVER_ERROR", "An internal server error occurred")
			return
		}

		SetIdentity(c, Identity{UserID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role})
		c.Next()
	}
}

// RequireAdmin aborts with 403 unless the caller is an administrator.
// It must run after RequireIdentity.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := GetIdentity(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid caller identity")
			return
		}
		if !id.IsAdmin() {
			abortWithError(c, http.StatusForbidden, "FORBIDDEN", "Forbidden: admin only")
			return
		}
		c.Next()
	}
}

// SetIdentity records the caller for the rest of the chain.
func SetIdentity(c *gin.Context, id Identity) {
	c.Set(identityKey, id)
}

// GetIdentity returns the caller set by RequireIdentity.
func GetIdentity(c *gin.Context) (Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}
