package fetch

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/odysseus0/alertbridge/internal/cache"
	"github.com/odysseus0/alertbridge/internal/model"
)

// countingStore wraps a real file store and records every Save so tests can
// assert the cheap paths never rewrite the cache.
type countingStore struct {
	inner   cache.Store
	mu      sync.Mutex
	saves   int
	saveErr error
}

func newCountingStore(t *testing.T) *countingStore {
	t.Helper()
	return &countingStore{inner: cache.NewFileStore(filepath.Join(t.TempDir(), "rss_cache.json"), nil)}
}

func (s *countingStore) Load(ctx context.Context) model.CachedFeed {
	return s.inner.Load(ctx)
}

func (s *countingStore) Save(ctx context.Context, feed model.CachedFeed) error {
	s.mu.Lock()
	s.saves++
	err := s.saveErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.inner.Save(ctx, feed)
}

func (s *countingStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func seedStore(t *testing.T, s cache.Store, feed model.CachedFeed) {
	t.Helper()
	if err := s.Save(context.Background(), feed); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
}

func newTestFetcher(t *testing.T, s cache.Store, url string, opts ...Option) *Fetcher {
	t.Helper()
	f, err := NewFetcher(s, Config{
		FeedURL:   url,
		UserAgent: "alertbridge-test/1.0",
		Timeout:   5 * time.Second,
	}, opts...)
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	return f
}
