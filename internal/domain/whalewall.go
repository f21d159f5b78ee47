package domain

// WhaleWallEvent represents a detected large resting order that qualified
// for persistence. Corresponds to whale_wall_events table in PostgreSQL.
// Events are never mutated; they are deleted only via bulk clear by symbol.
type WhaleWallEvent struct {
	ID             int64   `json:"id"`             // BIGSERIAL primary key
	Symbol         string  `json:"symbol"`         // trading pair, e.g. BTCUSDT
	Exchange       string  `json:"exchange"`       // upstream exchange identifier
	Side           string  `json:"side"`           // "BID" | "ASK"
	Price          float64 `json:"price"`          // price level of the wall
	Quantity       float64 `json:"quantity"`       // base-asset size of the wall
	NotionalValue  float64 `json:"notionalValue"`  // price * quantity in quote currency
	ThresholdValue float64 `json:"thresholdValue"` // detection threshold in effect at submission
	EventKey       string  `json:"eventKey"`       // deterministic dedupe key, unique
	CreatedAtMs    int64   `json:"createdAtMs"`    // record creation timestamp (ms)
}

// Wall side constants
const (
	WallSideBid = "BID"
	WallSideAsk = "ASK"
)

// ValidWallSide reports whether side is one of the two accepted values.
func ValidWallSide(side string) bool {
	return side == WallSideBid || side == WallSideAsk
}
