package cli

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/odysseus0/alertbridge/internal/alerts"
	"github.com/odysseus0/alertbridge/internal/bridge"
	"github.com/odysseus0/alertbridge/internal/cache"
	"github.com/odysseus0/alertbridge/internal/config"
	"github.com/odysseus0/alertbridge/internal/fetch"
	"github.com/odysseus0/alertbridge/internal/logging"
	"github.com/odysseus0/alertbridge/internal/metrics"
	"github.com/odysseus0/alertbridge/internal/snapshot"
)

type App struct {
	cfg       config.Config
	logger    *zap.Logger
	metrics   *metrics.Metrics
	cache     *cache.FileStore
	fetcher   *fetch.Fetcher
	parser    *alerts.Parser
	client    *bridge.Client
	snapshots snapshot.Store
}

func NewApp(cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	m := metrics.New()
	store := cache.NewFileStore(cfg.CachePath, logger)
	fetcher, err := fetch.NewFetcher(store, fetch.Config{
		FeedURL:   cfg.FeedURL,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.HTTPTimeout,
	}, fetch.WithLogger(logger), fetch.WithMetrics(m))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	client, err := bridge.NewClient(cfg.BridgeURL, cfg.HTTPTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	return &App{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		cache:   store,
		fetcher: fetcher,
		parser: alerts.NewParser(
			alerts.WithLimit(cfg.MaxAlerts),
			alerts.WithTimeLayout(cfg.TimeLayout),
			alerts.WithLocation(cfg.Location),
		),
		client: client,
	}, nil
}

// Snapshots opens the local snapshot store on first use.
func (a *App) Snapshots() (snapshot.Store, error) {
	if a.snapshots != nil {
		return a.snapshots, nil
	}
	s, err := snapshot.Open(a.cfg.SnapshotKind, a.cfg.SnapshotPath)
	if err != nil {
		if errors.Is(err, snapshot.ErrUnknownBackend) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	a.snapshots = s
	return s, nil
}

func (a *App) Close() error {
	_ = a.logger.Sync()
	if a.snapshots != nil {
		err := a.snapshots.Close()
		a.snapshots = nil
		return err
	}
	return nil
}
