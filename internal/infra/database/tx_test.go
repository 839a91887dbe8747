package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/buyer-leads/internal/entity"
	"github.com/xavierca1/buyer-leads/internal/usecase"
)

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO t VALUES (1)`)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollbackOnFnError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := WithTx(context.Background(), db, nil, func(context.Context, DBTX) error { return boom })
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	defer func() {
		require.NotNil(t, recover(), "expected panic to propagate")
		require.NoError(t, mock.ExpectationsWereMet())
	}()

	_ = WithTx(context.Background(), db, nil, func(context.Context, DBTX) error {
		panic("kaput")
	})
}

func TestWithTx_BeginError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin().WillReturnError(errors.New("no connection"))

	err := WithTx(context.Background(), db, nil, func(context.Context, DBTX) error { return nil })
	require.Error(t, err)
}

func TestStore_WithinTxRollsBackBuyerWhenHistoryFails(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT\s+INTO\s+buyers`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT\s+INTO\s+buyer_history`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(ctx context.Context, repos usecase.Repositories) error {
		b := &entity.Buyer{ID: "b-1", Tags: []string{}}
		if err := repos.Buyers().Create(ctx, b); err != nil {
			return err
		}
		return repos.History().Append(ctx, &entity.HistoryEntry{ID: "h-1", BuyerID: b.ID, Diff: entity.Created{After: *b}})
	})
	require.ErrorContains(t, err, "disk full")
	require.NoError(t, mock.ExpectationsWereMet())
}
