package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/odysseus0/alertbridge/internal/config"
)

func testConfig(dir string) config.Config {
	cfg := config.Default(dir)
	cfg.CachePath = filepath.Join(dir, "rss_cache.json")
	cfg.SnapshotPath = filepath.Join(dir, "snapshot.db")
	cfg.HTTPTimeout = 5 * time.Second
	cfg.Location = time.UTC
	cfg.LogLevel = "error"
	return cfg
}

// runCLI executes one command and returns its stdout.
func runCLI(t *testing.T, cfg config.Config, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd(cfg)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func mustRunCLI(t *testing.T, cfg config.Config, args ...string) string {
	t.Helper()
	out, err := runCLI(t, cfg, args...)
	if err != nil {
		t.Fatalf("command failed (%v): %v", args, err)
	}
	return out
}

func decodeJSON(t *testing.T, raw string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
}
