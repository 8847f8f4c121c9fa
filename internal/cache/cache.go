package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/odysseus0/alertbridge/internal/logging"
	"github.com/odysseus0/alertbridge/internal/model"
)

// Store is the single-slot durable home of the last good feed body.
type Store interface {
	Load(ctx context.Context) model.CachedFeed
	Save(ctx context.Context, feed model.CachedFeed) error
}

// FileStore keeps the slot as one JSON document on disk.
type FileStore struct {
	path   string
	logger *zap.Logger
}

func NewFileStore(path string, logger *zap.Logger) *FileStore {
	return &FileStore{path: path, logger: logging.OrNop(logger).Named("cache")}
}

func (s *FileStore) Path() string {
	return s.path
}

// Load never fails: a missing, unreadable or corrupt file is an empty cache.
func (s *FileStore) Load(ctx context.Context) model.CachedFeed {
	feed, err := s.read()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("cache read error, treating as empty", zap.String("path", s.path), zap.Error(err))
		}
		return model.CachedFeed{}
	}
	return feed
}

func (s *FileStore) read() (model.CachedFeed, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return model.CachedFeed{}, err
	}
	var feed model.CachedFeed
	if err := json.Unmarshal(b, &feed); err != nil {
		return model.CachedFeed{}, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return feed, nil
}

// Save replaces the slot. The document is written to a temp file in the same
// directory and renamed over the old one so readers never see a partial write.
func (s *FileStore) Save(ctx context.Context, feed model.CachedFeed) error {
	b, err := json.MarshalIndent(feed, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp cache file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp cache file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp cache file: %w", err)
	}
	if err = os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}
