package ingest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/odysseus0/alertbridge/internal/alerts"
	"github.com/odysseus0/alertbridge/internal/logging"
	"github.com/odysseus0/alertbridge/internal/model"
	"github.com/odysseus0/alertbridge/internal/snapshot"
)

const DefaultSyncInterval = 60 * time.Second

const (
	OfflineID      = "err"
	OfflineTime    = "SYNC ERR"
	OfflineMessage = "Scraper offline. Ensure 'alertbridge serve' is running on the bridge host."
)

// Hop fetches the raw feed body from the bridge.
type Hop interface {
	FetchAlerts(ctx context.Context) (string, error)
}

// ConnectivitySource reports online/offline transitions until ctx ends, then
// closes the channel.
type ConnectivitySource interface {
	Subscribe(ctx context.Context) <-chan bool
}

// Loop keeps a bounded alert list current by polling the bridge, falling back
// to the local snapshot when the hop fails.
type Loop struct {
	hop       Hop
	snapshots snapshot.Store
	parser    *alerts.Parser
	conn      ConnectivitySource
	clock     clock.Clock
	interval  time.Duration
	logger    *zap.Logger

	syncing atomic.Bool

	mu       sync.Mutex
	view     model.View
	onChange func(model.View)
}

type Option func(*Loop)

func WithClock(c clock.Clock) Option {
	return func(l *Loop) { l.clock = c }
}

func WithInterval(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

func WithConnectivity(src ConnectivitySource) Option {
	return func(l *Loop) { l.conn = src }
}

func WithLogger(logger *zap.Logger) Option {
	return func(l *Loop) { l.logger = logging.OrNop(logger).Named("ingest") }
}

func NewLoop(hop Hop, snapshots snapshot.Store, parser *alerts.Parser, opts ...Option) *Loop {
	l := &Loop{
		hop:       hop,
		snapshots: snapshots,
		parser:    parser,
		clock:     clock.New(),
		interval:  DefaultSyncInterval,
		logger:    zap.NewNop(),
		view: model.View{
			Alerts:  []model.AlertRecord{},
			Online:  true,
			Loading: true,
		},
	}
	if l.parser == nil {
		l.parser = alerts.NewParser()
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OfflineRecord is published when neither the bridge nor the snapshot can
// produce a list.
func OfflineRecord() model.AlertRecord {
	return model.AlertRecord{
		ID:      OfflineID,
		Time:    OfflineTime,
		Message: OfflineMessage,
		Kind:    model.KindError,
	}
}

// OnChange registers fn to be called with a copy of the view after every
// publish or connectivity change. fn runs outside the loop's lock.
func (l *Loop) OnChange(fn func(model.View)) {
	l.mu.Lock()
	l.onChange = fn
	l.mu.Unlock()
}

func (l *Loop) View() model.View {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.copyView()
}

// Run syncs once immediately and then on every tick until ctx ends. Ticks
// that land while a sync is running are dropped. Run returns after the
// ticker and the connectivity subscription are both torn down.
func (l *Loop) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	defer wg.Wait()

	if l.conn != nil {
		events := l.conn.Subscribe(ctx)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for online := range events {
				l.setOnline(online)
			}
		}()
	}

	ticker := l.clock.Ticker(l.interval)
	defer ticker.Stop()

	syncAsync := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Sync(ctx)
		}()
	}

	l.logger.Info("ingestion loop started", zap.Duration("interval", l.interval))
	syncAsync()
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("ingestion loop stopped")
			return nil
		case <-ticker.C:
			syncAsync()
		}
	}
}

// Refresh is a manual sync for the presentation layer.
func (l *Loop) Refresh(ctx context.Context) model.SyncResult {
	return l.Sync(ctx)
}

// Sync runs one attempt unless another is already in flight, in which case
// it returns SyncSkipped without touching the hop.
func (l *Loop) Sync(ctx context.Context) model.SyncResult {
	if !l.syncing.CompareAndSwap(false, true) {
		l.logger.Debug("sync already in flight, dropping")
		return model.SyncSkipped
	}

	list, result := l.attempt(ctx)

	now := l.clock.Now()
	l.mu.Lock()
	if list != nil {
		l.view.Alerts = list
	}
	l.view.Loading = false
	l.view.LastSync = &now
	v := l.copyView()
	fn := l.onChange
	l.mu.Unlock()

	l.syncing.Store(false)
	l.logger.Debug("sync finished", zap.String("result", string(result)), zap.Int("alerts", len(v.Alerts)))
	if fn != nil {
		fn(v)
	}
	return result
}

// attempt returns the list to publish, or nil to keep the current one.
func (l *Loop) attempt(ctx context.Context) ([]model.AlertRecord, model.SyncResult) {
	body, err := l.hop.FetchAlerts(ctx)
	if err == nil {
		if !alerts.LooksLikeMarkup(body) {
			l.logger.Warn("bridge returned a non-markup body, keeping current list", zap.Int("bytes", len(body)))
			return nil, model.SyncKept
		}
		if err := l.snapshots.Put(ctx, snapshot.Key, body); err != nil {
			l.logger.Warn("snapshot write failed", zap.Error(err))
		}
		list, err := l.parser.Parse(body)
		if err != nil {
			l.logger.Warn("feed parse failed, keeping current list", zap.Error(err))
			return nil, model.SyncKept
		}
		if len(list) == 0 {
			return nil, model.SyncKept
		}
		return list, model.SyncFresh
	}

	l.logger.Warn("bridge unreachable, trying local snapshot", zap.Error(err))
	if body, ok := snapshot.Load(ctx, l.snapshots, snapshot.Key, l.logger); ok {
		list, err := l.parser.Parse(body)
		if err == nil && len(list) > 0 {
			return list, model.SyncSnapshot
		}
		l.logger.Warn("snapshot unusable", zap.Error(err))
	}
	return []model.AlertRecord{OfflineRecord()}, model.SyncError
}

func (l *Loop) setOnline(online bool) {
	l.mu.Lock()
	l.view.Online = online
	v := l.copyView()
	fn := l.onChange
	l.mu.Unlock()

	l.logger.Info("connectivity changed", zap.Bool("online", online))
	if fn != nil {
		fn(v)
	}
}

func (l *Loop) copyView() model.View {
	v := l.view
	v.Alerts = append([]model.AlertRecord(nil), l.view.Alerts...)
	if l.view.LastSync != nil {
		t := *l.view.LastSync
		v.LastSync = &t
	}
	return v
}
