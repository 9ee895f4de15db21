package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/wallet-ledger/internal/api_gateway/handler"
	"github.com/wallet-ledger/internal/api_gateway/middleware"
	"github.com/wallet-ledger/internal/domain/user"
)

type routes struct {
	users          user.Directory
	cache          *redis.Client // nil disables idempotency keys
	idempotencyTTL time.Duration

	wallet       *handler.WalletHandler
	transactions *handler.TransactionHandler
	admin        *handler.AdminHandler
}

// setupRouter configures API routes and middleware for the application
func setupRouter(logger *slog.Logger, r *gin.Engine, rt routes) {
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RequireIdentity(rt.users, logger))
	if rt.cache != nil {
		v1.Use(middleware.Idempotency(rt.cache, rt.idempotencyTTL, logger))
	}
	{
		wallet := v1.Group("/wallet")
		{
			wallet.GET("", rt.wallet.Get)
			wallet.POST("/deposit", rt.wallet.Deposit)
			wallet.POST("/topup", rt.wallet.Deposit)
			wallet.POST("/withdraw", rt.wallet.Withdraw)
			wallet.POST("/transfer", rt.wallet.Transfer)
		}

		v1.GET("/transactions", rt.transactions.List)

		admin := v1.Group("/admin", middleware.RequireAdmin())
		{
			admin.GET("/transactions", rt.transactions.ListAll)
			admin.GET("/users", rt.admin.Users)
			admin.GET("/wallets/:user_id", rt.admin.Wallet)
			admin.GET("/summary", rt.admin.Summary)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
