package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/panjf2000/ants/v2"
	"github.com/wallet-ledger/internal/domain/ledger"
)

type WorkerPoolConfig struct {
	Size int
}

// WorkerPoolArchiver runs archive calls on a bounded ants pool so that a
// burst of events cannot open more MongoDB operations than the pool size.
type WorkerPoolArchiver struct {
	base   Archiver
	pool   *ants.Pool
	logger *slog.Logger
}

func NewWorkerPoolArchiver(base Archiver, cfg WorkerPoolConfig, logger *slog.Logger) (*WorkerPoolArchiver, error) {
	pool, err := ants.NewPool(cfg.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	return &WorkerPoolArchiver{base: base, pool: pool, logger: logger}, nil
}

// Archive submits the work and waits for its result or for ctx to end.
func (s *WorkerPoolArchiver) Archive(ctx context.Context, t *ledger.Transaction) error {
	record := *t
	result := make(chan error, 1)

	if err := s.pool.Submit(func() {
		result <- s.base.Archive(ctx, &record)
	}); err != nil {
		s.logger.Error("failed to submit archive task", "transaction_id", t.ID, "error", err)
		return fmt.Errorf("submit archive task for transaction %d: %w", t.ID, err)
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown releases the pool. Tasks already running finish on their own.
func (s *WorkerPoolArchiver) Shutdown() {
	s.logger.Info("shutting down archive worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

func (s *WorkerPoolArchiver) Running() int {
	return s.pool.Running()
}

func (s *WorkerPoolArchiver) Capacity() int {
	return s.pool.Cap()
}
