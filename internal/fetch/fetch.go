package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/odysseus0/alertbridge/internal/alerts"
	"github.com/odysseus0/alertbridge/internal/cache"
	"github.com/odysseus0/alertbridge/internal/logging"
	"github.com/odysseus0/alertbridge/internal/metrics"
	"github.com/odysseus0/alertbridge/internal/model"
)

var (
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrMalformedBody       = errors.New("malformed upstream body")
	ErrNoCachedFeed        = errors.New("no cached feed")
)

const (
	maxBodyBytes = 16 << 20
	acceptHeader = "application/xml, text/xml, */*"
)

type Config struct {
	FeedURL   string
	UserAgent string
	Timeout   time.Duration
}

// Fetcher revalidates the single upstream feed against the cache store and
// always answers with some body unless nothing was ever cached.
type Fetcher struct {
	cfg     Config
	store   cache.Store
	client  *http.Client
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Fetcher)

func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(f *Fetcher) { f.logger = logging.OrNop(l).Named("fetch") }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Fetcher) { f.metrics = m }
}

func NewFetcher(store cache.Store, cfg Config, opts ...Option) (*Fetcher, error) {
	feedURL, err := NormalizeURL(cfg.FeedURL)
	if err != nil {
		return nil, fmt.Errorf("feed url: %w", err)
	}
	cfg.FeedURL = feedURL

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	}

	f := &Fetcher{
		cfg:   cfg,
		store: store,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *Fetcher) FeedURL() string {
	return f.cfg.FeedURL
}

// FetchAlerts runs one conditional GET. A 304 serves the cached body without
// touching the store, a fresh markup body replaces the store, and every other
// outcome falls back to the cached body. ErrNoCachedFeed is returned only when
// the upstream failed and there is nothing to fall back to.
func (f *Fetcher) FetchAlerts(ctx context.Context) (model.FeedResponse, error) {
	cached := f.store.Load(ctx)
	res := f.revalidate(ctx, cached)

	switch res.Outcome {
	case model.OutcomeNotModified:
		if cached.HasData() {
			f.logger.Info("upstream not modified, serving cache")
			f.metrics.ObserveFetch(string(model.SourceNotModified))
			return model.FeedResponse{Body: cached.Data, Source: model.SourceNotModified}, nil
		}
		res = model.UpstreamResult{Err: fmt.Errorf("%w: 304 without a cached body", ErrUpstreamUnavailable)}
	case model.OutcomeFresh:
		fetchedAt := f.now().UTC()
		next := model.CachedFeed{
			ETag:         res.ETag,
			LastModified: res.LastModified,
			FetchedAt:    &fetchedAt,
			Data:         res.Body,
		}
		if err := f.store.Save(ctx, next); err != nil {
			f.logger.Error("cache write failed, serving response anyway", zap.Error(err))
			f.metrics.ObserveSaveError()
		}
		f.logger.Info("upstream returned new data, cache updated", zap.String("etag", res.ETag), zap.Int("bytes", len(res.Body)))
		f.metrics.ObserveFetch(string(model.SourceFresh))
		return model.FeedResponse{Body: res.Body, Source: model.SourceFresh}, nil
	}

	f.logger.Warn("upstream fetch failed", zap.String("url", f.cfg.FeedURL), zap.Error(res.Err))
	if cached.HasData() {
		f.logger.Info("serving emergency cache")
		f.metrics.ObserveFetch(string(model.SourceFallback))
		return model.FeedResponse{Body: cached.Data, Source: model.SourceFallback}, nil
	}
	f.metrics.ObserveFetch(string(model.SourceFailed))
	return model.FeedResponse{}, fmt.Errorf("%w: %v", ErrNoCachedFeed, res.Err)
}

func (f *Fetcher) revalidate(ctx context.Context, cached model.CachedFeed) model.UpstreamResult {
	req, err := f.newFeedRequest(ctx, cached)
	if err != nil {
		return model.UpstreamResult{Err: err}
	}

	start := f.now()
	resp, err := f.client.Do(req)
	f.metrics.ObserveUpstream(f.now().Sub(start).Seconds())
	if err != nil {
		return model.UpstreamResult{Err: fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return model.UpstreamResult{Outcome: model.OutcomeNotModified}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.UpstreamResult{Err: fmt.Errorf("%w: http %d", ErrUpstreamUnavailable, resp.StatusCode)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return model.UpstreamResult{Err: fmt.Errorf("%w: read body: %v", ErrUpstreamUnavailable, err)}
	}
	if len(data) > maxBodyBytes {
		return model.UpstreamResult{Err: fmt.Errorf("%w: body exceeds %d bytes", ErrMalformedBody, maxBodyBytes)}
	}
	body := string(data)
	if !alerts.LooksLikeMarkup(body) {
		return model.UpstreamResult{Err: fmt.Errorf("%w: %d bytes, not markup", ErrMalformedBody, len(data))}
	}

	return model.UpstreamResult{
		Outcome:      model.OutcomeFresh,
		Body:         body,
		ETag:         strings.TrimSpace(resp.Header.Get("ETag")),
		LastModified: strings.TrimSpace(resp.Header.Get("Last-Modified")),
	}
}

func (f *Fetcher) newFeedRequest(ctx context.Context, cached model.CachedFeed) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.FeedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", acceptHeader)
	if !cached.HasData() {
		return req, nil
	}
	if cached.ETag != "" {
		req.Header.Set("If-None-Match", cached.ETag)
	}
	if cached.LastModified != "" {
		req.Header.Set("If-Modified-Since", cached.LastModified)
	}
	return req, nil
}
