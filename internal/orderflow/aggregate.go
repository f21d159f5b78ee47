// Package orderflow reduces trade lists to directional volume summaries.
package orderflow

import (
	"math"
	"time"

	"orderflow-lab/internal/domain"
)

// Aggregate reduces trades to buy/sell volume and counts, restricted to
// prints at or after now - windowSeconds. The cutoff is inclusive: a trade
// stamped exactly at the boundary contributes.
//
// Sign convention: IsBuyerMaker true means the buyer was the resting order,
// so the taker sold: an aggressive sell. Inverting this silently corrupts
// the signal; the convention is pinned by tests.
//
// Trades with non-finite price or quantity are skipped, not fatal. An empty
// list after filtering yields an all-zero summary with a nil ratio.
func Aggregate(trades []domain.Trade, symbol, exchange string, windowSeconds int, now time.Time) domain.OrderFlowSummary {
	nowMs := now.UnixMilli()
	cutoff := nowMs - int64(windowSeconds)*1000

	summary := domain.OrderFlowSummary{
		Symbol:        symbol,
		Exchange:      exchange,
		WindowSeconds: windowSeconds,
		ComputedAt:    nowMs,
	}

	for _, t := range trades {
		if t.Timestamp < cutoff {
			continue
		}
		if !isFinite(t.Quantity) || !isFinite(t.Price) {
			continue
		}

		if t.AggressiveSell() {
			summary.SellVolume += t.Quantity
			summary.SellCount++
		} else {
			summary.BuyVolume += t.Quantity
			summary.BuyCount++
		}
	}

	summary.Delta = summary.BuyVolume - summary.SellVolume
	if summary.SellVolume > 0 {
		ratio := summary.BuyVolume / summary.SellVolume
		summary.Ratio = &ratio
	}

	return summary
}

// isFinite reports whether v is neither NaN nor infinite.
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
