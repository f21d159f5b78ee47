// Package eventkey derives deterministic deduplication keys for whale-wall
// events. Two detections of the same wall within the same time bucket produce
// the same key and collapse to one stored row via the store's unique index.
package eventkey

import (
	"fmt"
	"math"
)

// BucketSeconds is the fixed width of the deduplication time bucket.
const BucketSeconds = 10

// Compute builds the dedupe key for a wall detection.
// Formula: exchange|symbol|side|round(price,4)|floor(nowMs / (BucketSeconds*1000))
//
// This is a fixed-window scheme: two detections straddling a bucket edge are
// treated as distinct events.
func Compute(exchange, symbol, side string, price float64, nowMs int64) string {
	return fmt.Sprintf("%s|%s|%s|%.4f|%d",
		exchange,
		symbol,
		side,
		RoundPrice(price),
		Bucket(nowMs),
	)
}

// RoundPrice rounds a price to 4 decimal places.
func RoundPrice(price float64) float64 {
	return math.Round(price*10000) / 10000
}

// Bucket returns the fixed-width time bucket index for a wall-clock time.
func Bucket(nowMs int64) int64 {
	return nowMs / (BucketSeconds * 1000)
}
