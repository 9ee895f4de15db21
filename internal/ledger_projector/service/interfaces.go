package service

import (
	"context"

	"github.com/wallet-ledger/internal/domain/ledger"
)

// Archiver stores one committed ledger transaction in the audit archive.
type Archiver interface {
	Archive(ctx context.Context, t *ledger.Transaction) error
}
