package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wallet-ledger/internal/domain/ledger"
)

// ArchiveService writes ledger events into the archive. Kafka delivers at
// least once, so an already archived transaction counts as success.
type ArchiveService struct {
	archive ledger.Archive
	logger  *slog.Logger
}

func NewArchiveService(archive ledger.Archive, logger *slog.Logger) *ArchiveService {
	return &ArchiveService{archive: archive, logger: logger}
}

func (s *ArchiveService) Archive(ctx context.Context, t *ledger.Transaction) error {
	err := s.archive.Insert(ctx, t)
	switch {
	case err == nil:
		s.logger.Info("archived ledger transaction",
			"transaction_id", t.ID,
			"type", t.Type,
			"amount", t.Amount,
		)
		return nil
	case errors.Is(err, ledger.ErrDuplicateTransaction{}):
		s.logger.Info("ledger transaction already archived", "transaction_id", t.ID)
		return nil
	default:
		return fmt.Errorf("archive transaction %d: %w", t.ID, err)
	}
}
