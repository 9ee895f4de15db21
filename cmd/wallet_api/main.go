package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/wallet-ledger/internal/api_gateway"
	"github.com/wallet-ledger/internal/api_gateway/service"
	"github.com/wallet-ledger/internal/config"
	"github.com/wallet-ledger/internal/data/memory"
	"github.com/wallet-ledger/internal/data/postgres"
	"github.com/wallet-ledger/internal/domain/shared"
	"github.com/wallet-ledger/internal/domain/store"
	"github.com/wallet-ledger/internal/engine"
	"github.com/wallet-ledger/internal/guard"
	"github.com/wallet-ledger/internal/logger"
	"github.com/wallet-ledger/internal/outbox_poller"
	"github.com/wallet-ledger/internal/platform/messaging/producers"
	"github.com/wallet-ledger/internal/platform/persistence"
	"github.com/wallet-ledger/internal/reporting"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("wallet_api")
	if err != nil {
		// logger is not initialized yet
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)
	log.Info("starting wallet API", "store_driver", cfg.Store.Driver)

	var (
		ledgerStore store.Store
		postgresDB  *persistence.PostgresDB
		pgStore     *postgres.Store
	)
	if cfg.UsesPostgres() {
		if err := persistence.RunMigrations(log, &cfg.Postgres); err != nil {
			log.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		postgresDB, err = persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
		if err != nil {
			log.Error("failed to initialize PostgreSQL", "error", err)
			os.Exit(1)
		}
		pgStore = postgres.NewStore(log, postgresDB)
		ledgerStore = pgStore
	} else {
		memStore := memory.NewStore()
		if _, err := memStore.AddUser("Administrator", cfg.Store.AdminEmail, shared.RoleAdmin); err != nil {
			log.Error("failed to seed administrator", "error", err)
			os.Exit(1)
		}
		ledgerStore = memStore
	}

	var cache *redis.Client
	if cfg.IdempotencyEnabled() {
		cache, err = persistence.NewRedisClient(appCtx, cfg.Redis.URL)
		if err != nil {
			log.Error("failed to initialize Redis", "error", err)
			os.Exit(1)
		}
		log.Info("idempotency keys enabled", "ttl", cfg.Redis.IdempotencyTTL.String())
	}

	ledgerEngine := engine.New(ledgerStore, guard.New(cfg.Guard.AcquireTimeout), log)
	walletService := service.NewWalletService(log, ledgerEngine, ledgerStore.Users())
	reportingService := service.NewReportingService(log, reporting.NewView(ledgerStore))

	server := api_gateway.NewServer(log, cfg, ledgerStore.Users(), walletService, reportingService, cache)

	var (
		wg            sync.WaitGroup
		eventProducer *producers.LedgerEventProducer
	)
	if cfg.RelaysOutbox() {
		eventProducer, err = producers.NewLedgerEventProducer(log, &cfg.Kafka)
		if err != nil {
			log.Error("failed to initialize ledger event producer", "error", err)
			os.Exit(1)
		}
		outboxRepo := pgStore.Outbox()
		poller := outbox_poller.NewPoller(
			&cfg.Outbox,
			outboxRepo,
			outbox_poller.NewEventRelay(outboxRepo, eventProducer, log),
			log.With("component", "outbox_poller"),
		)

		wg.Add(1)
		go func() {
			defer wg.Done()
			poller.Start(appCtx)
		}()
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("shutdown signal received")
	case serverErr = <-errChan:
		log.Error("server error occurred", "error", serverErr)
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("starting graceful shutdown")
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("error during server shutdown", "error", err)
	}
	waitOrTimeout(shutdownCtx, &wg, log)

	if eventProducer != nil {
		if err := eventProducer.Close(); err != nil {
			log.Error("error closing ledger event producer", "error", err)
		}
	}
	if cache != nil {
		if err := cache.Close(); err != nil {
			log.Error("error closing Redis client", "error", err)
		}
	}
	if postgresDB != nil {
		postgresDB.Close()
	}

	if serverErr != nil {
		log.Error("wallet API stopped with errors", "error", serverErr)
		os.Exit(1)
	}
	log.Info("wallet API stopped")
}

func waitOrTimeout(ctx context.Context, wg *sync.WaitGroup, log *slog.Logger) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		log.Warn("shutdown timeout reached before background workers stopped")
	}
}
