package snapshot

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func openBackends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	out := map[string]Store{}
	for name, path := range map[string]string{
		BackendSQLite:  filepath.Join(dir, "snapshot.db"),
		BackendLevelDB: filepath.Join(dir, "snapshot.ldb"),
	} {
		s, err := Open(name, path)
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		t.Cleanup(func() { _ = s.Close() })
		out[name] = s
	}
	return out
}

func TestStore_RoundTripAndMissingKey(t *testing.T) {
	ctx := context.Background()
	for name, s := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			if v, ok, err := s.Get(ctx, Key); err != nil || ok || v != "" {
				t.Fatalf("empty store Get = (%q, %v, %v), want miss", v, ok, err)
			}

			if err := s.Put(ctx, Key, "<rss>one</rss>"); err != nil {
				t.Fatalf("put: %v", err)
			}
			if err := s.Put(ctx, Key, "<rss>two</rss>"); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			v, ok, err := s.Get(ctx, Key)
			if err != nil || !ok {
				t.Fatalf("get after put: ok=%v err=%v", ok, err)
			}
			if v != "<rss>two</rss>" {
				t.Fatalf("get = %q, want last written value", v)
			}

			if err := s.Delete(ctx, Key); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, ok, _ := s.Get(ctx, Key); ok {
				t.Fatalf("key still present after delete")
			}
			if err := s.Delete(ctx, Key); !errors.Is(err, ErrNotFound) {
				t.Fatalf("second delete err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestOpenSQLite_MigrationsAreIdempotentAndDataSurvives(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "snapshot.db")

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open first: %v", err)
	}
	if err := s.Put(ctx, Key, "<rss/>"); err != nil {
		t.Fatalf("put: %v", err)
	}
	_ = s.Close()

	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("open second: %v", err)
	}
	defer s.Close()

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != len(migrations) {
		t.Fatalf("migration count = %d, want %d", count, len(migrations))
	}
	if v, ok, err := s.Get(ctx, Key); err != nil || !ok || v != "<rss/>" {
		t.Fatalf("reopened Get = (%q, %v, %v)", v, ok, err)
	}
	if ts, err := s.UpdatedAt(ctx, Key); err != nil || ts.IsZero() {
		t.Fatalf("updated_at = %v, %v", ts, err)
	}
	if _, err := s.UpdatedAt(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("updated_at missing err = %v, want ErrNotFound", err)
	}
}

func TestOpen_RejectsUnknownBackend(t *testing.T) {
	if _, err := Open("redis", filepath.Join(t.TempDir(), "x")); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("err = %v, want ErrUnknownBackend", err)
	}
}

func TestLoad_TreatsUnreadableStoreAsMiss(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "snapshot.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = s.Close()

	core, logs := observer.New(zap.WarnLevel)
	v, ok := Load(context.Background(), s, Key, zap.New(core))
	if ok || v != "" {
		t.Fatalf("Load on closed store = (%q, %v), want miss", v, ok)
	}
	if logs.FilterMessage("snapshot read error, treating as empty").Len() != 1 {
		t.Fatalf("expected read error to be logged")
	}
}
