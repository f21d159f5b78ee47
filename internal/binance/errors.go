package binance

import (
	"errors"
	"fmt"
)

// ErrUpstreamUnavailable indicates the trade feed errored or returned a
// non-success status. Surfaced to callers as a retryable condition; this
// package never retries internally and never substitutes data.
var ErrUpstreamUnavailable = errors.New("upstream trade feed unavailable")

// UpstreamError carries the upstream HTTP status for non-2xx responses.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream trade feed returned status %d: %s", e.Status, e.Body)
}

// Unwrap makes UpstreamError match ErrUpstreamUnavailable via errors.Is.
func (e *UpstreamError) Unwrap() error {
	return ErrUpstreamUnavailable
}
