package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/wallet-ledger/internal/config"
	"github.com/wallet-ledger/internal/data/mongo"
	"github.com/wallet-ledger/internal/ledger_projector/consumer"
	"github.com/wallet-ledger/internal/ledger_projector/service"
	"github.com/wallet-ledger/internal/logger"
	"github.com/wallet-ledger/internal/platform/messaging/consumers"
	"github.com/wallet-ledger/internal/platform/messaging/producers"
	"github.com/wallet-ledger/internal/platform/persistence"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("ledger_projector")
	if err != nil {
		// logger is not initialized yet
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)
	log.Info("starting ledger projector",
		"topic", cfg.Kafka.LedgerTopic,
		"group", cfg.Kafka.ConsumerGroup,
	)

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	auditRepo := mongo.NewAuditRepository(log, mongoDB.Database())
	if err := auditRepo.EnsureIndexes(appCtx); err != nil {
		log.Error("failed to prepare ledger audit collection", "error", err)
		os.Exit(1)
	}
	if totals, err := auditRepo.Totals(appCtx); err == nil {
		log.Info("ledger audit archive loaded", "deposits", totals.Deposits, "withdrawals", totals.Withdrawals)
	}

	dlqProducer, err := producers.NewDLQProducer(log, &cfg.Kafka)
	if err != nil {
		log.Error("failed to initialize DLQ producer", "error", err)
		os.Exit(1)
	}

	archiver, err := service.NewWorkerPoolArchiver(
		service.NewArchiveService(auditRepo, log),
		service.WorkerPoolConfig{Size: cfg.WorkerPool.Size},
		log,
	)
	if err != nil {
		log.Error("failed to initialize archive worker pool", "error", err)
		os.Exit(1)
	}

	handler := consumer.NewLedgerEventHandler(log, archiver, dlqProducer)
	kafkaConsumer := consumers.NewKafkaConsumer(log, &cfg.Kafka)

	done := make(chan error, 1)
	go func() {
		done <- kafkaConsumer.Consume(appCtx, handler.HandleMessage)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	consumerRunning := true
	select {
	case <-quit:
		log.Info("shutdown signal received")
	case err := <-done:
		consumerRunning = false
		log.Error("kafka consumer stopped unexpectedly", "error", err)
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if consumerRunning {
		select {
		case <-done:
		case <-shutdownCtx.Done():
			log.Warn("shutdown timeout reached before consumer stopped")
		}
	}

	archiver.Shutdown()
	if err := kafkaConsumer.Close(); err != nil {
		log.Error("error closing kafka consumer", "error", err)
	}
	if err := dlqProducer.Close(); err != nil {
		log.Error("error closing DLQ producer", "error", err)
	}
	if err := mongoDB.Close(shutdownCtx); err != nil {
		log.Error("error closing MongoDB connection", "error", err)
	}

	log.Info("ledger projector stopped")
}
