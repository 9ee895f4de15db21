package postgres

import (
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
	"github.com/wallet-ledger/internal/logger"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func q(fragment string) string {
	return regexp.QuoteMeta(fragment)
}

func int64Ptr(v int64) *int64 { return &v }

func strPtr(s string) *string { return &s }

var testLogger = logger.Discard()
