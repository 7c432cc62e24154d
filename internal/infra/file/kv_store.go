package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// KVStore keeps one JSON document per key in a directory.
type KVStore struct {
	dir string
}

// NewKVStore creates dir if needed.
func NewKVStore(dir string) (*KVStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create leaderboard dir: %w", err)
	}
	return &KVStore{dir: dir}, nil
}

func (s *KVStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return data, true, nil
}

// Set replaces the document atomically; readers see either the old or the new board.
func (s *KVStore) Set(_ context.Context, key string, value []byte) error {
	if err := renameio.WriteFile(s.path(key), value, 0o644, renameio.WithTempDir(s.dir)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *KVStore) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+".json")
}
