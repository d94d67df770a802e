package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPostgres(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	store, mock := newMockPostgres(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS kv_records").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get(t *testing.T) {
	store, mock := newMockPostgres(t)

	mock.ExpectQuery("SELECT value, version FROM kv_records WHERE key = \\$1").
		WithArgs("journal:a@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"value", "version"}).AddRow([]byte(`[]`), int64(3)))

	rec, err := store.Get(context.Background(), "journal:a@example.com")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), rec.Value)
	assert.Equal(t, int64(3), rec.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetMissing(t *testing.T) {
	store, mock := newMockPostgres(t)

	mock.ExpectQuery("SELECT value, version FROM kv_records").
		WithArgs("journal:none@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := store.Get(context.Background(), "journal:none@example.com")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestPostgresStore_CreateRecord(t *testing.T) {
	store, mock := newMockPostgres(t)

	mock.ExpectExec("INSERT INTO kv_records").
		WithArgs("k", []byte(`v`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	version, err := store.CompareAndSwap(context.Background(), "k", 0, []byte(`v`))
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateExistingRecord(t *testing.T) {
	store, mock := newMockPostgres(t)

	mock.ExpectExec("INSERT INTO kv_records").
		WithArgs("k", []byte(`v`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := store.CompareAndSwap(context.Background(), "k", 0, []byte(`v`))
	assert.ErrorIs(t, err, ErrVersionMismatch)
}

func TestPostgresStore_UpdateRecord(t *testing.T) {
	store, mock := newMockPostgres(t)

	mock.ExpectExec("UPDATE kv_records SET value = \\$1, version = version \\+ 1").
		WithArgs([]byte(`v2`), "k", int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	version, err := store.CompareAndSwap(context.Background(), "k", 4, []byte(`v2`))
	require.NoError(t, err)
	assert.Equal(t, int64(5), version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateStaleVersion(t *testing.T) {
	store, mock := newMockPostgres(t)

	mock.ExpectExec("UPDATE kv_records").
		WithArgs([]byte(`v2`), "k", int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := store.CompareAndSwap(context.Background(), "k", 4, []byte(`v2`))
	assert.ErrorIs(t, err, ErrVersionMismatch)
}

func TestPostgresStore_ExecError(t *testing.T) {
	store, mock := newMockPostgres(t)
	boom := errors.New("connection reset")

	mock.ExpectExec("UPDATE kv_records").WillReturnError(boom)

	_, err := store.CompareAndSwap(context.Background(), "k", 1, []byte(`v`))
	assert.ErrorIs(t, err, boom)
}
