package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

var ErrInvalidConfig = errors.New("invalid config")

const (
	defaultFeedURL          = "https://sachet.ndma.gov.in/cap_public_website/rss/rss_india.xml"
	defaultListenAddr       = ":5000"
	defaultBridgeURL        = "http://localhost:5000"
	defaultHTTPTimeoutSec   = 20
	defaultSyncIntervalSec  = 60
	defaultProbeIntervalSec = 15
	defaultProbeAddr        = "1.1.1.1:53"
	defaultMaxAlerts        = 5
	defaultTimeLayout       = "3:04:05 PM"
	defaultLogLevel         = "info"
	defaultLogFormat        = "console"
	defaultCacheFileName    = "rss_cache.json"
)

const (
	defaultUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"
	configFolderName  = "alertbridge"
	configFileName    = "config.toml"
	configPathEnvName = "XDG_CONFIG_HOME"
)

const (
	SnapshotSQLite  = "sqlite"
	SnapshotLevelDB = "leveldb"
)

type Config struct {
	FeedURL       string
	CachePath     string
	ListenAddr    string
	HTTPTimeout   time.Duration
	UserAgent     string
	BridgeURL     string
	SyncInterval  time.Duration
	SnapshotPath  string
	SnapshotKind  string
	MaxAlerts     int
	TimeLayout    string
	Location      *time.Location
	ProbeAddr     string
	ProbeInterval time.Duration
	LogLevel      string
	LogFormat     string
}

func Default(home string) Config {
	return Config{
		FeedURL:       defaultFeedURL,
		CachePath:     filepath.Join(home, ".local", "share", "alertbridge", defaultCacheFileName),
		ListenAddr:    defaultListenAddr,
		HTTPTimeout:   defaultHTTPTimeoutSec * time.Second,
		UserAgent:     defaultUserAgent,
		BridgeURL:     defaultBridgeURL,
		SyncInterval:  defaultSyncIntervalSec * time.Second,
		SnapshotPath:  filepath.Join(home, ".local", "share", "alertbridge", "snapshot.db"),
		SnapshotKind:  SnapshotSQLite,
		MaxAlerts:     defaultMaxAlerts,
		TimeLayout:    defaultTimeLayout,
		Location:      time.Local,
		ProbeAddr:     defaultProbeAddr,
		ProbeInterval: defaultProbeIntervalSec * time.Second,
		LogLevel:      defaultLogLevel,
		LogFormat:     defaultLogFormat,
	}
}

func LoadConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	cfg := Default(home)

	configPath, hasConfig, err := findConfigPath(home)
	if err != nil {
		return Config{}, err
	}
	if hasConfig {
		fileCfg, err := loadFileConfig(configPath)
		if err != nil {
			return Config{}, err
		}
		if err := applyFileConfig(&cfg, fileCfg); err != nil {
			return Config{}, fmt.Errorf("%w: config file %q: %v", ErrInvalidConfig, configPath, err)
		}
	}

	applyEnvOverrides(&cfg)

	if cfg.MaxAlerts < 1 {
		cfg.MaxAlerts = defaultMaxAlerts
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = defaultHTTPTimeoutSec * time.Second
	}
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = defaultSyncIntervalSec * time.Second
	}
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = defaultProbeIntervalSec * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return cfg, nil
}

type fileConfig struct {
	FeedURL              *string `toml:"feed_url"`
	CachePath            *string `toml:"cache_path"`
	ListenAddr           *string `toml:"listen_addr"`
	HTTPTimeoutSeconds   *int    `toml:"http_timeout_seconds"`
	UserAgent            *string `toml:"user_agent"`
	BridgeURL            *string `toml:"bridge_url"`
	SyncIntervalSeconds  *int    `toml:"sync_interval_seconds"`
	SnapshotPath         *string `toml:"snapshot_path"`
	SnapshotBackend      *string `toml:"snapshot_backend"`
	MaxAlerts            *int    `toml:"max_alerts"`
	TimeLayout           *string `toml:"time_layout"`
	Timezone             *string `toml:"timezone"`
	ProbeAddr            *string `toml:"probe_addr"`
	ProbeIntervalSeconds *int    `toml:"probe_interval_seconds"`
	LogLevel             *string `toml:"log_level"`
	LogFormat            *string `toml:"log_format"`
}

func findConfigPath(home string) (string, bool, error) {
	candidates := make([]string, 0, 2)
	if xdgConfigHome := strings.TrimSpace(os.Getenv(configPathEnvName)); xdgConfigHome != "" {
		candidates = append(candidates, filepath.Join(xdgConfigHome, configFolderName, configFileName))
	}
	candidates = append(candidates, filepath.Join(home, ".config", configFolderName, configFileName))

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil {
			if info.IsDir() {
				return "", false, fmt.Errorf("config path %q is a directory; expected a file", candidate)
			}
			return candidate, true, nil
		}
		if os.IsNotExist(err) {
			continue
		}
		return "", false, fmt.Errorf("failed to read config path %q: %w", candidate, err)
	}
	return "", false, nil
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return fileConfig{}, fmt.Errorf("%w: config file %q: %v", ErrInvalidConfig, path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		unknown := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			unknown = append(unknown, key.String())
		}
		sort.Strings(unknown)
		return fileConfig{}, fmt.Errorf("%w: config file %q: unknown key(s): %s", ErrInvalidConfig, path, strings.Join(unknown, ", "))
	}
	if err := validateFileConfig(cfg); err != nil {
		return fileConfig{}, fmt.Errorf("%w: config file %q: %v", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

func validateFileConfig(cfg fileConfig) error {
	nonEmpty := map[string]*string{
		"feed_url":      cfg.FeedURL,
		"cache_path":    cfg.CachePath,
		"listen_addr":   cfg.ListenAddr,
		"bridge_url":    cfg.BridgeURL,
		"snapshot_path": cfg.SnapshotPath,
		"time_layout":   cfg.TimeLayout,
		"probe_addr":    cfg.ProbeAddr,
	}
	keys := make([]string, 0, len(nonEmpty))
	for k := range nonEmpty {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := nonEmpty[k]; v != nil && strings.TrimSpace(*v) == "" {
			return fmt.Errorf("%s must be non-empty when provided", k)
		}
	}

	positive := []struct {
		key string
		val *int
	}{
		{"http_timeout_seconds", cfg.HTTPTimeoutSeconds},
		{"sync_interval_seconds", cfg.SyncIntervalSeconds},
		{"max_alerts", cfg.MaxAlerts},
		{"probe_interval_seconds", cfg.ProbeIntervalSeconds},
	}
	for _, p := range positive {
		if p.val != nil && *p.val <= 0 {
			return fmt.Errorf("%s must be > 0", p.key)
		}
	}

	if cfg.SnapshotBackend != nil {
		if _, err := ParseSnapshotKind(*cfg.SnapshotBackend); err != nil {
			return err
		}
	}
	if cfg.LogFormat != nil {
		switch strings.ToLower(strings.TrimSpace(*cfg.LogFormat)) {
		case "console", "json":
		default:
			return fmt.Errorf("log_format must be console or json, got %q", *cfg.LogFormat)
		}
	}
	return nil
}

func applyFileConfig(cfg *Config, fileCfg fileConfig) error {
	setString(&cfg.FeedURL, fileCfg.FeedURL)
	setString(&cfg.CachePath, fileCfg.CachePath)
	setString(&cfg.ListenAddr, fileCfg.ListenAddr)
	setString(&cfg.UserAgent, fileCfg.UserAgent)
	setString(&cfg.BridgeURL, fileCfg.BridgeURL)
	setString(&cfg.SnapshotPath, fileCfg.SnapshotPath)
	setString(&cfg.TimeLayout, fileCfg.TimeLayout)
	setString(&cfg.ProbeAddr, fileCfg.ProbeAddr)
	setString(&cfg.LogLevel, fileCfg.LogLevel)
	setString(&cfg.LogFormat, fileCfg.LogFormat)
	setSeconds(&cfg.HTTPTimeout, fileCfg.HTTPTimeoutSeconds)
	setSeconds(&cfg.SyncInterval, fileCfg.SyncIntervalSeconds)
	setSeconds(&cfg.ProbeInterval, fileCfg.ProbeIntervalSeconds)
	if fileCfg.MaxAlerts != nil {
		cfg.MaxAlerts = *fileCfg.MaxAlerts
	}
	if fileCfg.SnapshotBackend != nil {
		kind, err := ParseSnapshotKind(*fileCfg.SnapshotBackend)
		if err != nil {
			return err
		}
		cfg.SnapshotKind = kind
	}
	if fileCfg.Timezone != nil {
		loc, err := time.LoadLocation(strings.TrimSpace(*fileCfg.Timezone))
		if err != nil {
			return fmt.Errorf("timezone: %v", err)
		}
		cfg.Location = loc
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("ALERTBRIDGE_FEED_URL"); ok && v != "" {
		cfg.FeedURL = v
	}
	if v, ok := os.LookupEnv("ALERTBRIDGE_CACHE_PATH"); ok && v != "" {
		cfg.CachePath = v
	}
	if v, ok := os.LookupEnv("ALERTBRIDGE_LISTEN_ADDR"); ok && v != "" {
		cfg.ListenAddr = v
	}
	if v, ok := os.LookupEnv("ALERTBRIDGE_HTTP_TIMEOUT_SECONDS"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPTimeout = time.Duration(n) * time.Second
		}
	}
	if v, ok := os.LookupEnv("ALERTBRIDGE_USER_AGENT"); ok && v != "" {
		cfg.UserAgent = v
	}
	if v, ok := os.LookupEnv("ALERTBRIDGE_BRIDGE_URL"); ok && v != "" {
		cfg.BridgeURL = v
	}
	if v, ok := os.LookupEnv("ALERTBRIDGE_SYNC_INTERVAL_SECONDS"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SyncInterval = time.Duration(n) * time.Second
		}
	}
	if v, ok := os.LookupEnv("ALERTBRIDGE_SNAPSHOT_PATH"); ok && v != "" {
		cfg.SnapshotPath = v
	}
	if v, ok := os.LookupEnv("ALERTBRIDGE_SNAPSHOT_BACKEND"); ok && v != "" {
		if kind, err := ParseSnapshotKind(v); err == nil {
			cfg.SnapshotKind = kind
		}
	}
	if v, ok := os.LookupEnv("ALERTBRIDGE_MAX_ALERTS"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxAlerts = n
		}
	}
	if v, ok := os.LookupEnv("ALERTBRIDGE_TIMEZONE"); ok && v != "" {
		if loc, err := time.LoadLocation(v); err == nil {
			cfg.Location = loc
		}
	}
	if v, ok := os.LookupEnv("ALERTBRIDGE_PROBE_ADDR"); ok && v != "" {
		cfg.ProbeAddr = v
	}
	if v, ok := os.LookupEnv("ALERTBRIDGE_LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv("ALERTBRIDGE_LOG_FORMAT"); ok && v != "" {
		cfg.LogFormat = v
	}
}

func ParseSnapshotKind(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case SnapshotSQLite:
		return SnapshotSQLite, nil
	case SnapshotLevelDB:
		return SnapshotLevelDB, nil
	default:
		return "", fmt.Errorf("snapshot_backend must be %s or %s, got %q", SnapshotSQLite, SnapshotLevelDB, raw)
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setSeconds(dst *time.Duration, v *int) {
	if v != nil {
		*dst = time.Duration(*v) * time.Second
	}
}
