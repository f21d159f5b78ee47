// Package stub provides deterministic TradeSource implementations for tests.
package stub

import (
	"context"

	"orderflow-lab/internal/domain"
)

// TradeSource returns canned trades, a fixed partial flag, or a fixed error.
type TradeSource struct {
	Trades  []domain.Trade
	Partial bool
	Err     error

	// Calls records the symbols passed to FetchRecent.
	Calls []string
}

// FetchRecent returns the configured trades and flags.
func (s *TradeSource) FetchRecent(_ context.Context, symbol string) ([]domain.Trade, bool, error) {
	s.Calls = append(s.Calls, symbol)
	if s.Err != nil {
		return nil, false, s.Err
	}
	return s.Trades, s.Partial, nil
}

// Exchange identifies the stub feed.
func (s *TradeSource) Exchange() string {
	return "stub"
}
