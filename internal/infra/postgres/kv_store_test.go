package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestOpenKVStore(t *testing.T) {
	kv, err := OpenKVStore("invalid://connection")
	assert.Error(t, err, "should fail with invalid connection string")
	assert.Nil(t, kv, "store should be nil on error")
}

func TestKVStoreGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	kv := NewKVStore(db)
	rows := sqlmock.NewRows([]string{"value"}).AddRow(`[{"name":"Alice"}]`)
	mock.ExpectQuery(`SELECT value FROM leaderboard_kv WHERE key = \$1`).
		WithArgs("leaderboard_quiz-1").
		WillReturnRows(rows)

	value, ok, err := kv.Get(context.Background(), "leaderboard_quiz-1")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"name":"Alice"}]`, string(value))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKVStoreGetMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	kv := NewKVStore(db)
	mock.ExpectQuery(`SELECT value FROM leaderboard_kv`).
		WithArgs("leaderboard_none").
		WillReturnError(sql.ErrNoRows)

	value, ok, err := kv.Get(context.Background(), "leaderboard_none")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKVStoreSet(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	kv := NewKVStore(db)
	mock.ExpectExec(`INSERT INTO leaderboard_kv`).
		WithArgs("leaderboard_quiz-1", `[]`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = kv.Set(context.Background(), "leaderboard_quiz-1", []byte(`[]`))
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKVStoreReportsMissingSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	kv := NewKVStore(db)
	mock.ExpectQuery(`SELECT value FROM leaderboard_kv`).
		WillReturnError(&pq.Error{Code: "42P01", Message: `relation "leaderboard_kv" does not exist`})

	_, _, err = kv.Get(context.Background(), "leaderboard_quiz-1")
	assert.True(t, errors.Is(err, ErrSchemaMissing), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
