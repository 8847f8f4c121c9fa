package bridge

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/odysseus0/alertbridge/internal/fetch"
	"github.com/odysseus0/alertbridge/internal/logging"
	"github.com/odysseus0/alertbridge/internal/metrics"
	"github.com/odysseus0/alertbridge/internal/model"
)

const failureBody = "<error>Feed Connection Failed</error>"

// FeedSource answers one revalidating fetch. *fetch.Fetcher satisfies it.
type FeedSource interface {
	FetchAlerts(ctx context.Context) (model.FeedResponse, error)
	FeedURL() string
}

type Server struct {
	source  FeedSource
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewServer(source FeedSource, logger *zap.Logger, m *metrics.Metrics) *Server {
	return &Server{
		source:  source,
		logger:  logging.OrNop(logger).Named("bridge"),
		metrics: m,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/fetch-alerts", s.handleFetchAlerts)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	return s.logRequests(allowAnyOrigin(mux))
}

func (s *Server) handleFetchAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp, err := s.source.FetchAlerts(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, fetch.ErrNoCachedFeed) {
			status = http.StatusBadGateway
		}
		s.logger.Error("fetch-alerts failed", zap.Error(err))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(failureBody))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Alertbridge-Source", string(resp.Source))
	_, _ = w.Write([]byte(resp.Body))
}

var indexTmpl = template.Must(template.New("index").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>alertbridge</title></head>
<body style="font-family: sans-serif; text-align: center; padding: 50px; background: #f1f5f9;">
<h1 style="color: #002855;">alertbridge</h1>
<p>Upstream: {{.}}</p>
<p><a href="/fetch-alerts">View live XML feed</a></p>
</body>
</html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, s.source.FeedURL()); err != nil {
		s.logger.Warn("render index", zap.Error(err))
	}
}

func allowAnyOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "*")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Int("bytes", rec.bytes),
			zap.Duration("took", time.Since(start)),
		)
	})
}
