package domain

// Trade represents a single executed trade print from the upstream feed.
// Trades are ephemeral: they exist only for the duration of one aggregation
// call and are never persisted.
type Trade struct {
	Price     float64 // execution price in quote currency
	Quantity  float64 // base-asset quantity
	Timestamp int64   // Unix timestamp in milliseconds
	// IsBuyerMaker follows the Binance convention: true means the buyer was
	// the resting (maker) order, i.e. the taker sold into a standing bid.
	// true => aggressive sell, false => aggressive buy.
	IsBuyerMaker bool
}

// AggressiveSell reports whether the taker side of the trade was a seller.
func (t Trade) AggressiveSell() bool {
	return t.IsBuyerMaker
}
