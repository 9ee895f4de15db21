package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wallet-ledger/internal/domain/ledger"
	"github.com/wallet-ledger/internal/domain/outbox"
	"github.com/wallet-ledger/internal/domain/shared"
)

var outboxColumns = []string{"id", "transaction_id", "payload", "status", "attempts", "created_at", "last_attempt_at"}

func TestOutboxRepository_Record(t *testing.T) {
	ctx := context.Background()
	mock := newMock(t)
	repo := &OutboxRepository{querier: mock, logger: testLogger}

	tx := ledger.NewDeposit(1, 100, "")
	tx.ID = 55

	mock.ExpectQuery(q("INSERT INTO transaction_outbox")).
		WithArgs(int64(55), pgxmock.AnyArg(), shared.OutboxStatusPending, 0, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))

	require.NoError(t, repo.Record(ctx, tx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	mock := newMock(t)
	repo := &OutboxRepository{querier: mock, logger: testLogger}

	msg := &outbox.Message{TransactionID: 8, Payload: json.RawMessage(`{}`), Status: shared.OutboxStatusPending}
	mock.ExpectQuery(q("INSERT INTO transaction_outbox")).
		WithArgs(int64(8), msg.Payload, msg.Status, 0, msg.CreatedAt).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	err := repo.Create(ctx, msg)
	assert.Equal(t, outbox.ErrDuplicateMessage{TransactionID: 8}, err)
}

func TestOutboxRepository_GetPending(t *testing.T) {
	ctx := context.Background()
	mock := newMock(t)
	repo := &OutboxRepository{querier: mock, logger: testLogger}
	now := time.Now().UTC()

	rows := pgxmock.NewRows(outboxColumns).
		AddRow(int64(1), int64(10), json.RawMessage(`{"id":10}`), shared.OutboxStatusPending, 0, now, (*time.Time)(nil)).
		AddRow(int64(2), int64(11), json.RawMessage(`{"id":11}`), shared.OutboxStatusPending, 2, now, &now)
	mock.ExpectQuery(q("ORDER BY created_at ASC, id ASC")).WithArgs(shared.OutboxStatusPending, 50).WillReturnRows(rows)

	msgs, err := repo.GetPending(ctx, 50)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Nil(t, msgs[0].LastAttemptAt)
	assert.Equal(t, 2, msgs[1].Attempts)
	assert.JSONEq(t, `{"id":11}`, string(msgs[1].Payload))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	mock := newMock(t)
	repo := &OutboxRepository{querier: mock, logger: testLogger}

	mock.ExpectExec(q("SET status = $1")).WithArgs(shared.OutboxStatusProcessed, pgxmock.AnyArg(), int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, repo.UpdateStatus(ctx, 1, shared.OutboxStatusProcessed))

	mock.ExpectExec(q("SET status = $1")).WithArgs(shared.OutboxStatusProcessed, pgxmock.AnyArg(), int64(2)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.Equal(t, outbox.ErrMessageNotFound{ID: 2}, repo.UpdateStatus(ctx, 2, shared.OutboxStatusProcessed))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_IncrementAttempts(t *testing.T) {
	ctx := context.Background()
	mock := newMock(t)
	repo := &OutboxRepository{querier: mock, logger: testLogger}

	dbErr := errors.New("timeout")
	mock.ExpectExec(q("attempts = attempts + 1")).WithArgs(pgxmock.AnyArg(), int64(3)).WillReturnError(dbErr)

	err := repo.IncrementAttempts(ctx, 3)
	assert.ErrorIs(t, err, dbErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_GetByTransactionID(t *testing.T) {
	ctx := context.Background()
	mock := newMock(t)
	repo := &OutboxRepository{querier: mock, logger: testLogger}
	now := time.Now().UTC()

	mock.ExpectQuery(q("WHERE transaction_id = $1")).WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows(outboxColumns).
			AddRow(int64(1), int64(10), json.RawMessage(`{}`), shared.OutboxStatusProcessed, 1, now, &now))
	msg, err := repo.GetByTransactionID(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, shared.OutboxStatusProcessed, msg.Status)

	mock.ExpectQuery(q("WHERE transaction_id = $1")).WithArgs(int64(11)).WillReturnError(pgx.ErrNoRows)
	_, err = repo.GetByTransactionID(ctx, 11)
	assert.Equal(t, outbox.ErrMessageNotFound{}, err)
}
