package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/odysseus0/alertbridge/internal/fetch"
)

var ErrHopUnreachable = errors.New("bridge unreachable")

const maxHopBytes = 16 << 20

// Client performs the fetch hop against a running bridge.
type Client struct {
	endpoint string
	http     *http.Client
}

func NewClient(bridgeURL string, timeout time.Duration) (*Client, error) {
	base, err := fetch.NormalizeURL(bridgeURL)
	if err != nil {
		return nil, fmt.Errorf("bridge url: %w", err)
	}
	return &Client{
		endpoint: strings.TrimRight(base, "/") + "/fetch-alerts",
		http:     &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// FetchAlerts returns the raw body served by the bridge. Transport errors and
// non-2xx statuses both wrap ErrHopUnreachable.
func (c *Client) FetchAlerts(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHopUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: http %d", ErrHopUnreachable, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxHopBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrHopUnreachable, err)
	}
	if len(data) > maxHopBytes {
		return "", fmt.Errorf("%w: body exceeds %d bytes", ErrHopUnreachable, maxHopBytes)
	}
	return string(data), nil
}
