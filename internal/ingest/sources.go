// Package ingest defines the trade ingestion boundary: a bounded,
// best-effort fetch of recent trade prints for a validated symbol.
package ingest

import (
	"context"
	"fmt"

	"orderflow-lab/internal/binance"
	"orderflow-lab/internal/domain"
)

// Window bounds in seconds. Caller-supplied windows are clamped into
// [MinWindowSeconds, MaxWindowSeconds]; zero means DefaultWindowSeconds.
const (
	MinWindowSeconds     = 1
	MaxWindowSeconds     = 3600
	DefaultWindowSeconds = 60
)

// ValidateSymbol checks a trading symbol against the allow-list pattern.
func ValidateSymbol(symbol string) error {
	if !domain.ValidSymbol(symbol) {
		return fmt.Errorf("invalid symbol %q: expected 2-20 uppercase alphanumerics or ._-", symbol)
	}
	return nil
}

// ClampWindow normalizes a caller-supplied window in seconds.
func ClampWindow(windowSeconds int) int {
	if windowSeconds == 0 {
		return DefaultWindowSeconds
	}
	if windowSeconds < MinWindowSeconds {
		return MinWindowSeconds
	}
	if windowSeconds > MaxWindowSeconds {
		return MaxWindowSeconds
	}
	return windowSeconds
}

// TradeSource fetches recent trade prints for a symbol.
type TradeSource interface {
	// FetchRecent returns recent trades for symbol, unordered as far as
	// callers are concerned (they filter by timestamp, not position), and
	// whether the upstream record cap was hit. The window is best-effort:
	// high-activity symbols may generate more trades than the cap covers.
	FetchRecent(ctx context.Context, symbol string) (trades []domain.Trade, partial bool, err error)

	// Exchange identifies the upstream this source reads from.
	Exchange() string
}

// BinanceSource implements TradeSource over the Binance REST client.
type BinanceSource struct {
	client *binance.Client
}

// NewBinanceSource creates a trade source backed by the Binance feed.
func NewBinanceSource(client *binance.Client) *BinanceSource {
	return &BinanceSource{client: client}
}

// Compile-time interface check.
var _ TradeSource = (*BinanceSource)(nil)

// FetchRecent fetches the most recent prints, bounded by the upstream cap.
// The symbol must already be validated; upstream failures surface as
// binance.ErrUpstreamUnavailable and are never replaced with fabricated data.
func (s *BinanceSource) FetchRecent(ctx context.Context, symbol string) ([]domain.Trade, bool, error) {
	return s.client.RecentTrades(ctx, symbol, binance.MaxTradeLimit)
}

// Exchange identifies the upstream feed.
func (s *BinanceSource) Exchange() string {
	return binance.Exchange
}
