package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrSchemaMissing means the leaderboard table has not been migrated yet.
var ErrSchemaMissing = errors.New("leaderboard_kv table missing, run migrate")

// undefinedTable is the SQLSTATE Postgres reports for a missing relation.
const undefinedTable = "42P01"

// KVStore persists leaderboard documents in the leaderboard_kv table.
type KVStore struct {
	db *sql.DB
}

// OpenKVStore connects through lib/pq and verifies the connection.
func OpenKVStore(dsn string) (*KVStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &KVStore{db: db}, nil
}

func NewKVStore(db *sql.DB) *KVStore {
	return &KVStore{db: db}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM leaderboard_kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classify(err)
	}
	return []byte(value), true, nil
}

func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leaderboard_kv (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, key, string(value))
	if err != nil {
		return classify(err)
	}
	return nil
}

func (s *KVStore) Close() error {
	return s.db.Close()
}

func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == undefinedTable {
		return fmt.Errorf("%w: %v", ErrSchemaMissing, err)
	}
	return err
}
