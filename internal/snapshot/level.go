package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/syndtr/goleveldb/leveldb"
)

type LevelStore struct {
	db *leveldb.DB
}

// OpenLevel opens (or creates) a leveldb directory at path.
func OpenLevel(path string) (*LevelStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}
	return &LevelStore{db: db}, nil
}

func (s *LevelStore) Get(_ context.Context, key string) (string, bool, error) {
	value, err := s.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return string(value), true, nil
}

func (s *LevelStore) Put(_ context.Context, key, value string) error {
	if err := s.db.Put([]byte(key), []byte(value), nil); err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

func (s *LevelStore) Delete(_ context.Context, key string) error {
	ok, err := s.db.Has([]byte(key), nil)
	if err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	if !ok {
		return fmt.Errorf("%q: %w", key, ErrNotFound)
	}
	if err := s.db.Delete([]byte(key), nil); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func (s *LevelStore) Close() error {
	return s.db.Close()
}
