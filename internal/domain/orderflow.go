package domain

// OrderFlowSummary is the result of reducing a trade list to directional
// volume over a time window. Response-only; never stored as-is.
type OrderFlowSummary struct {
	Symbol        string `json:"symbol"`
	Exchange      string `json:"exchange"`
	WindowSeconds int    `json:"windowSeconds"`

	BuyVolume  float64 `json:"buyVolume"`  // base units, aggressive buys
	BuyCount   int     `json:"buyCount"`   // number of aggressive buy prints
	SellVolume float64 `json:"sellVolume"` // base units, aggressive sells
	SellCount  int     `json:"sellCount"`  // number of aggressive sell prints

	// Delta = BuyVolume - SellVolume.
	Delta float64 `json:"delta"`
	// Ratio = BuyVolume / SellVolume; nil when SellVolume == 0 to avoid
	// division-by-zero ambiguity (never Inf or NaN).
	Ratio *float64 `json:"ratio"`

	// PartialCoverage is true when the upstream returned its record cap,
	// signalling the window may be under-covered for high-activity symbols.
	PartialCoverage bool `json:"partialCoverage"`

	ComputedAt int64 `json:"computedAt"` // Unix timestamp in milliseconds
}

// FlowSnapshot is a persisted order-flow summary row in the history archive.
// Append-only; corresponds to flow_snapshots table in ClickHouse.
type FlowSnapshot struct {
	Symbol        string  `json:"symbol"`
	Exchange      string  `json:"exchange"`
	WindowSeconds int     `json:"windowSeconds"`
	BuyVolume     float64 `json:"buyVolume"`
	BuyCount      int     `json:"buyCount"`
	SellVolume    float64 `json:"sellVolume"`
	SellCount     int     `json:"sellCount"`
	Delta         float64 `json:"delta"`
	ComputedAtMs  int64   `json:"computedAtMs"`
}

// SnapshotFromSummary converts a computed summary into an archivable snapshot.
func SnapshotFromSummary(s *OrderFlowSummary) *FlowSnapshot {
	return &FlowSnapshot{
		Symbol:        s.Symbol,
		Exchange:      s.Exchange,
		WindowSeconds: s.WindowSeconds,
		BuyVolume:     s.BuyVolume,
		BuyCount:      s.BuyCount,
		SellVolume:    s.SellVolume,
		SellCount:     s.SellCount,
		Delta:         s.Delta,
		ComputedAtMs:  s.ComputedAt,
	}
}
