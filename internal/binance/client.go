// Package binance provides clients for the upstream Binance market data
// feed: a REST client for recent trade prints and a WebSocket client for
// the live trade stream. The feed is treated as an opaque, best-effort,
// rate-limited source; retry policy belongs to callers.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"orderflow-lab/internal/domain"
)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.binance.com"
	DefaultTimeout = 10 * time.Second

	// MaxTradeLimit is the upstream cap on records per trades request.
	// A response of exactly this many records signals the requested window
	// may be under-covered.
	MaxTradeLimit = 1000
)

// Exchange is the identifier this client reports on summaries and events.
const Exchange = "binance"

// Client implements the upstream trade feed over Binance REST.
type Client struct {
	baseURL string
	client  *http.Client
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL sets the API base URL (used by tests against httptest servers).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a new Binance REST client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rawTrade mirrors one element of the GET /api/v3/trades response.
// Price and quantity arrive as strings.
type rawTrade struct {
	ID           int64  `json:"id"`
	Price        string `json:"price"`
	Qty          string `json:"qty"`
	Time         int64  `json:"time"`
	IsBuyerMaker bool   `json:"isBuyerMaker"`
}

// RecentTrades fetches up to limit recent trade prints for a symbol.
// Returns the parsed trades and whether the response hit the upstream cap.
// Individual trades with unparseable or non-finite numeric fields are
// skipped, not fatal; the feed's errors are never masked with fabricated
// data.
func (c *Client) RecentTrades(ctx context.Context, symbol string, limit int) ([]domain.Trade, bool, error) {
	if limit <= 0 || limit > MaxTradeLimit {
		limit = MaxTradeLimit
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("limit", strconv.Itoa(limit))
	endpoint := c.baseURL + "/api/v3/trades?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build trades request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, false, &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	var raw []rawTrade
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, false, fmt.Errorf("%w: decode trades response: %v", ErrUpstreamUnavailable, err)
	}

	trades := make([]domain.Trade, 0, len(raw))
	for _, r := range raw {
		t, ok := parseTrade(r)
		if !ok {
			continue
		}
		trades = append(trades, t)
	}

	// Partial coverage is judged on the raw record count: the upstream
	// returned its cap, so older activity in the window may be missing.
	partial := len(raw) >= limit

	return trades, partial, nil
}

// parseTrade converts a wire trade into a domain trade. Returns false when
// a numeric field is unparseable; such prints are dropped.
func parseTrade(r rawTrade) (domain.Trade, bool) {
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return domain.Trade{}, false
	}
	qty, err := decimal.NewFromString(r.Qty)
	if err != nil {
		return domain.Trade{}, false
	}

	return domain.Trade{
		Price:        price.InexactFloat64(),
		Quantity:     qty.InexactFloat64(),
		Timestamp:    r.Time,
		IsBuyerMaker: r.IsBuyerMaker,
	}, true
}
