// ABOUTME: Transaction and dialect tests against a mocked database handle
// ABOUTME: Verifies commit, rollback and placeholder rebinding without a real server

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T, driver string) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := Wrap(db, driver)
	require.NoError(t, err)
	return s, mock
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	s, mock := newMockStore(t, DriverSQLite)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM categories").WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.WithTx(context.Background(), func(tx Conn) error {
		return tx.DeleteNodeRow(context.Background(), TableCategories, 3)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	s, mock := newMockStore(t, DriverSQLite)
	hookErr := errors.New("attachment cleanup failed")

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM attachments").WillReturnError(hookErr)
	mock.ExpectRollback()

	err := s.WithTx(context.Background(), func(tx Conn) error {
		_, err := tx.DeleteAttachmentsFor(context.Background(), TableFootprints, 1)
		return err
	})
	assert.ErrorIs(t, err, hookErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	s, mock := newMockStore(t, DriverSQLite)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.PanicsWithValue(t, "boom", func() {
		_ = s.WithTx(context.Background(), func(tx Conn) error {
			panic("boom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_BeginFails(t *testing.T) {
	s, mock := newMockStore(t, DriverSQLite)
	mock.ExpectBegin().WillReturnError(errors.New("database is locked"))

	called := false
	err := s.WithTx(context.Background(), func(tx Conn) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestPostgres_RebindsPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	s, err := Wrap(db, DriverPostgres)
	require.NoError(t, err)

	mock.ExpectExec(`DELETE FROM attachments WHERE element_type = $1 AND element_id = $2`).
		WithArgs(TableDevices, int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := s.DeleteAttachmentsFor(context.Background(), TableDevices, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDialect_Rebind(t *testing.T) {
	pg := dialect{driver: DriverPostgres, postgres: true}
	assert.Equal(t, "a = $1 AND b = $2", pg.rebind("a = ? AND b = ?"))

	lite := dialect{driver: DriverSQLite}
	assert.Equal(t, "a = ? AND b = ?", lite.rebind("a = ? AND b = ?"))
}

func TestDialect_SQLiteDSN(t *testing.T) {
	modern := dialect{driver: DriverSQLite}
	assert.Contains(t, modern.sqliteDSN("/tmp/x.db"), "?_pragma=foreign_keys(1)")

	mattn := dialect{driver: DriverSQLite3}
	assert.Contains(t, mattn.sqliteDSN("/tmp/x.db?cache=shared"), "&_foreign_keys=on")
}
