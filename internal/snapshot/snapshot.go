package snapshot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/odysseus0/alertbridge/internal/logging"
)

// Key is where the client keeps the last raw feed body it received.
const Key = "alert_xml_cache"

var (
	ErrNotFound       = errors.New("not found")
	ErrUnknownBackend = errors.New("unknown snapshot backend")
)

const (
	BackendSQLite  = "sqlite"
	BackendLevelDB = "leveldb"
)

// Store is a small durable key/value store. Get reports a missing key as
// ("", false, nil); errors are reserved for an unreadable store.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open picks a backend by name. An empty name means sqlite.
func Open(backend, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendSQLite:
		return OpenSQLite(path)
	case BackendLevelDB:
		return OpenLevel(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// Load reads key and treats an unreadable store as a miss after logging it.
func Load(ctx context.Context, s Store, key string, logger *zap.Logger) (string, bool) {
	value, ok, err := s.Get(ctx, key)
	if err != nil {
		logging.OrNop(logger).Warn("snapshot read error, treating as empty", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return value, ok
}
