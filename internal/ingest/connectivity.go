package ingest

import (
	"context"
	"net"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/odysseus0/alertbridge/internal/logging"
)

const (
	DefaultProbeAddr     = "1.1.1.1:53"
	DefaultProbeInterval = 15 * time.Second
	probeTimeout         = 3 * time.Second
)

type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// ProbeMonitor decides reachability by opening a TCP connection to a well
// known address.
type ProbeMonitor struct {
	addr     string
	interval time.Duration
	timeout  time.Duration
	clock    clock.Clock
	dial     DialFunc
	logger   *zap.Logger
}

type ProbeOption func(*ProbeMonitor)

func WithProbeClock(c clock.Clock) ProbeOption {
	return func(p *ProbeMonitor) { p.clock = c }
}

func WithDialer(d DialFunc) ProbeOption {
	return func(p *ProbeMonitor) { p.dial = d }
}

func WithProbeLogger(logger *zap.Logger) ProbeOption {
	return func(p *ProbeMonitor) { p.logger = logging.OrNop(logger).Named("probe") }
}

func NewProbeMonitor(addr string, interval time.Duration, opts ...ProbeOption) *ProbeMonitor {
	if addr == "" {
		addr = DefaultProbeAddr
	}
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	p := &ProbeMonitor{
		addr:     addr,
		interval: interval,
		timeout:  probeTimeout,
		clock:    clock.New(),
		dial:     (&net.Dialer{}).DialContext,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *ProbeMonitor) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	conn, err := p.dial(ctx, "tcp", p.addr)
	if err != nil {
		p.logger.Debug("probe failed", zap.String("addr", p.addr), zap.Error(err))
		return false
	}
	_ = conn.Close()
	return true
}

// Subscribe probes immediately and then every interval, sending only state
// flips. The first result is always sent.
func (p *ProbeMonitor) Subscribe(ctx context.Context) <-chan bool {
	out := make(chan bool, 1)
	go func() {
		defer close(out)
		ticker := p.clock.Ticker(p.interval)
		defer ticker.Stop()

		known, last := false, false
		check := func() bool {
			online := p.Probe(ctx)
			if known && online == last {
				return true
			}
			known, last = true, online
			select {
			case out <- online:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !check() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !check() {
					return
				}
			}
		}
	}()
	return out
}

// StaticSource replays a fixed sequence of states and then idles until ctx
// ends.
type StaticSource struct {
	States []bool
}

func (s StaticSource) Subscribe(ctx context.Context) <-chan bool {
	out := make(chan bool)
	go func() {
		defer close(out)
		for _, st := range s.States {
			select {
			case out <- st:
			case <-ctx.Done():
				return
			}
		}
		<-ctx.Done()
	}()
	return out
}
