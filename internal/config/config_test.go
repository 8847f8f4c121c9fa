package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var configEnvKeys = []string{
	"HOME",
	configPathEnvName,
	"ALERTBRIDGE_FEED_URL",
	"ALERTBRIDGE_CACHE_PATH",
	"ALERTBRIDGE_LISTEN_ADDR",
	"ALERTBRIDGE_HTTP_TIMEOUT_SECONDS",
	"ALERTBRIDGE_USER_AGENT",
	"ALERTBRIDGE_BRIDGE_URL",
	"ALERTBRIDGE_SYNC_INTERVAL_SECONDS",
	"ALERTBRIDGE_SNAPSHOT_PATH",
	"ALERTBRIDGE_SNAPSHOT_BACKEND",
	"ALERTBRIDGE_MAX_ALERTS",
	"ALERTBRIDGE_TIMEZONE",
	"ALERTBRIDGE_PROBE_ADDR",
	"ALERTBRIDGE_LOG_LEVEL",
	"ALERTBRIDGE_LOG_FORMAT",
}

func setEnvForTest(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

func unsetEnvForTest(t *testing.T, key string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvKeys {
		unsetEnvForTest(t, key)
	}
}

func writeConfigFile(t *testing.T, home string, body string) string {
	t.Helper()
	path := filepath.Join(home, ".config", configFolderName, configFileName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestLoadConfig_NoConfigFileUsesDefaults(t *testing.T) {
	clearConfigEnv(t)
	home := t.TempDir()
	setEnvForTest(t, "HOME", home)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	wantCache := filepath.Join(home, ".local", "share", "alertbridge", defaultCacheFileName)
	if cfg.CachePath != wantCache {
		t.Fatalf("CachePath = %q, want %q", cfg.CachePath, wantCache)
	}
	if cfg.FeedURL != defaultFeedURL {
		t.Fatalf("FeedURL = %q, want %q", cfg.FeedURL, defaultFeedURL)
	}
	if cfg.SyncInterval != defaultSyncIntervalSec*time.Second {
		t.Fatalf("SyncInterval = %s, want %s", cfg.SyncInterval, defaultSyncIntervalSec*time.Second)
	}
	if cfg.MaxAlerts != defaultMaxAlerts {
		t.Fatalf("MaxAlerts = %d, want %d", cfg.MaxAlerts, defaultMaxAlerts)
	}
	if cfg.SnapshotKind != SnapshotSQLite {
		t.Fatalf("SnapshotKind = %q, want %q", cfg.SnapshotKind, SnapshotSQLite)
	}
	if cfg.HTTPTimeout != defaultHTTPTimeoutSec*time.Second {
		t.Fatalf("HTTPTimeout = %s, want %s", cfg.HTTPTimeout, defaultHTTPTimeoutSec*time.Second)
	}
	if cfg.UserAgent != defaultUserAgent {
		t.Fatalf("UserAgent = %q, want %q", cfg.UserAgent, defaultUserAgent)
	}
}

func TestLoadConfig_ConfigFileValuesApplied(t *testing.T) {
	clearConfigEnv(t)
	home := t.TempDir()
	setEnvForTest(t, "HOME", home)

	wantCache := filepath.Join(t.TempDir(), "cache.json")
	writeConfigFile(t, home, `
cache_path = "`+wantCache+`"
feed_url = "https://example.com/alerts.xml"
sync_interval_seconds = 30
max_alerts = 3
snapshot_backend = "leveldb"
timezone = "UTC"
time_layout = "15:04"
`)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.CachePath != wantCache {
		t.Fatalf("CachePath = %q, want %q", cfg.CachePath, wantCache)
	}
	if cfg.FeedURL != "https://example.com/alerts.xml" {
		t.Fatalf("FeedURL = %q", cfg.FeedURL)
	}
	if cfg.SyncInterval != 30*time.Second {
		t.Fatalf("SyncInterval = %s, want 30s", cfg.SyncInterval)
	}
	if cfg.MaxAlerts != 3 {
		t.Fatalf("MaxAlerts = %d, want 3", cfg.MaxAlerts)
	}
	if cfg.SnapshotKind != SnapshotLevelDB {
		t.Fatalf("SnapshotKind = %q, want %q", cfg.SnapshotKind, SnapshotLevelDB)
	}
	if cfg.Location != time.UTC {
		t.Fatalf("Location = %v, want UTC", cfg.Location)
	}
	if cfg.TimeLayout != "15:04" {
		t.Fatalf("TimeLayout = %q, want 15:04", cfg.TimeLayout)
	}
}

func TestLoadConfig_XDGConfigPreferredOverHomeConfig(t *testing.T) {
	clearConfigEnv(t)
	home := t.TempDir()
	xdg := t.TempDir()
	setEnvForTest(t, "HOME", home)
	setEnvForTest(t, configPathEnvName, xdg)

	writeConfigFile(t, home, "max_alerts = 2\n")
	xdgPath := filepath.Join(xdg, configFolderName, configFileName)
	if err := os.MkdirAll(filepath.Dir(xdgPath), 0o755); err != nil {
		t.Fatalf("mkdir xdg config dir: %v", err)
	}
	if err := os.WriteFile(xdgPath, []byte("max_alerts = 9\n"), 0o644); err != nil {
		t.Fatalf("write xdg config file: %v", err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.MaxAlerts != 9 {
		t.Fatalf("MaxAlerts = %d, want 9", cfg.MaxAlerts)
	}
}

func TestLoadConfig_EnvOverridesConfigFile(t *testing.T) {
	clearConfigEnv(t)
	home := t.TempDir()
	setEnvForTest(t, "HOME", home)

	writeConfigFile(t, home, `
cache_path = "/tmp/from-config.json"
sync_interval_seconds = 20
bridge_url = "http://config:5000"
`)

	envCache := filepath.Join(t.TempDir(), "from-env.json")
	setEnvForTest(t, "ALERTBRIDGE_CACHE_PATH", envCache)
	setEnvForTest(t, "ALERTBRIDGE_SYNC_INTERVAL_SECONDS", "90")
	setEnvForTest(t, "ALERTBRIDGE_BRIDGE_URL", "http://env:5000")
	setEnvForTest(t, "ALERTBRIDGE_HTTP_TIMEOUT_SECONDS", "9")
	setEnvForTest(t, "ALERTBRIDGE_USER_AGENT", "alertbridge-test/2.0")
	setEnvForTest(t, "ALERTBRIDGE_SNAPSHOT_BACKEND", "LevelDB")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.CachePath != envCache {
		t.Fatalf("CachePath = %q, want %q", cfg.CachePath, envCache)
	}
	if cfg.SyncInterval != 90*time.Second {
		t.Fatalf("SyncInterval = %s, want 90s", cfg.SyncInterval)
	}
	if cfg.BridgeURL != "http://env:5000" {
		t.Fatalf("BridgeURL = %q", cfg.BridgeURL)
	}
	if cfg.HTTPTimeout != 9*time.Second {
		t.Fatalf("HTTPTimeout = %s, want 9s", cfg.HTTPTimeout)
	}
	if cfg.UserAgent != "alertbridge-test/2.0" {
		t.Fatalf("UserAgent = %q", cfg.UserAgent)
	}
	if cfg.SnapshotKind != SnapshotLevelDB {
		t.Fatalf("SnapshotKind = %q, want %q", cfg.SnapshotKind, SnapshotLevelDB)
	}
}

func TestLoadConfig_InvalidOrEmptyEnvDoesNotOverrideConfigFile(t *testing.T) {
	clearConfigEnv(t)
	home := t.TempDir()
	setEnvForTest(t, "HOME", home)

	configCache := filepath.Join(t.TempDir(), "from-config.json")
	writeConfigFile(t, home, `
cache_path = "`+configCache+`"
max_alerts = 4
sync_interval_seconds = 42
`)

	setEnvForTest(t, "ALERTBRIDGE_CACHE_PATH", "")
	setEnvForTest(t, "ALERTBRIDGE_MAX_ALERTS", "0")
	setEnvForTest(t, "ALERTBRIDGE_SYNC_INTERVAL_SECONDS", "abc")
	setEnvForTest(t, "ALERTBRIDGE_SNAPSHOT_BACKEND", "redis")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.CachePath != configCache {
		t.Fatalf("CachePath = %q, want %q", cfg.CachePath, configCache)
	}
	if cfg.MaxAlerts != 4 {
		t.Fatalf("MaxAlerts = %d, want 4", cfg.MaxAlerts)
	}
	if cfg.SyncInterval != 42*time.Second {
		t.Fatalf("SyncInterval = %s, want 42s", cfg.SyncInterval)
	}
	if cfg.SnapshotKind != SnapshotSQLite {
		t.Fatalf("SnapshotKind = %q, want %q", cfg.SnapshotKind, SnapshotSQLite)
	}
}

func TestLoadConfig_InvalidConfigReturnsError(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantSnippet string
	}{
		{
			name:        "sync interval non-positive",
			body:        "sync_interval_seconds = 0\n",
			wantSnippet: "sync_interval_seconds must be > 0",
		},
		{
			name:        "max alerts non-positive",
			body:        "max_alerts = -1\n",
			wantSnippet: "max_alerts must be > 0",
		},
		{
			name:        "cache path empty",
			body:        "cache_path = \"   \"\n",
			wantSnippet: "cache_path must be non-empty",
		},
		{
			name:        "unsupported snapshot backend",
			body:        "snapshot_backend = \"redis\"\n",
			wantSnippet: "snapshot_backend must be",
		},
		{
			name:        "bad log format",
			body:        "log_format = \"xml\"\n",
			wantSnippet: "log_format must be console or json",
		},
		{
			name:        "unknown timezone",
			body:        "timezone = \"Nowhere/Atlantis\"\n",
			wantSnippet: "timezone",
		},
		{
			name:        "unknown key",
			body:        "timeout_seconds = 10\n",
			wantSnippet: "unknown key(s): timeout_seconds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			home := t.TempDir()
			setEnvForTest(t, "HOME", home)
			path := writeConfigFile(t, home, tt.body)

			_, err := LoadConfig()
			if err == nil {
				t.Fatalf("LoadConfig() error = nil, want error")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("error %v is not ErrInvalidConfig", err)
			}
			msg := err.Error()
			if !strings.Contains(msg, tt.wantSnippet) {
				t.Fatalf("error %q does not contain %q", msg, tt.wantSnippet)
			}
			if !strings.Contains(msg, path) {
				t.Fatalf("error %q does not contain path %q", msg, path)
			}
		})
	}
}
