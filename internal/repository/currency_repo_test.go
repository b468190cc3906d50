package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const upsertSQL = `INSERT INTO currencies (code, name, updated_at)`

func newMockRepo(t *testing.T) (*PostgresCurrencyRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresCurrencyRepository(db), mock
}

func TestUpsertSymbols(t *testing.T) {
	t.Run("writes every code in order inside one transaction", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		prep := mock.ExpectPrepare(regexp.QuoteMeta(upsertSQL))
		prep.ExpectExec().WithArgs("EUR", "Euro").WillReturnResult(sqlmock.NewResult(0, 1))
		prep.ExpectExec().WithArgs("USD", "United States Dollar").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		n, err := repo.UpsertSymbols(context.Background(), map[string]string{
			"USD": "United States Dollar",
			"eur": "Euro",
		})

		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		prep := mock.ExpectPrepare(regexp.QuoteMeta(upsertSQL))
		prep.ExpectExec().WithArgs("EUR", "Euro").WillReturnError(errors.New("boom"))
		mock.ExpectRollback()

		n, err := repo.UpsertSymbols(context.Background(), map[string]string{"EUR": "Euro"})

		require.Error(t, err)
		assert.Zero(t, n)
		assert.Contains(t, err.Error(), "upsert currency EUR")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty input is a no-op", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		n, err := repo.UpsertSymbols(context.Background(), nil)

		require.NoError(t, err)
		assert.Zero(t, n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetSymbols(t *testing.T) {
	query := regexp.QuoteMeta(`SELECT code, name, updated_at FROM currencies ORDER BY code`)

	t.Run("maps rows", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		now := time.Now()
		mock.ExpectQuery(query).WillReturnRows(
			sqlmock.NewRows([]string{"code", "name", "updated_at"}).
				AddRow("EUR", "Euro", now).
				AddRow("USD", "United States Dollar", now),
		)

		symbols, err := repo.GetSymbols(context.Background())

		require.NoError(t, err)
		assert.Equal(t, map[string]string{"EUR": "Euro", "USD": "United States Dollar"}, symbols)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty table", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{"code", "name", "updated_at"}))

		_, err := repo.GetSymbols(context.Background())

		assert.ErrorIs(t, err, ErrEmptyCatalogue)
	})

	t.Run("query error", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(query).WillReturnError(errors.New("connection reset"))

		_, err := repo.GetSymbols(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "query currencies")
	})
}
