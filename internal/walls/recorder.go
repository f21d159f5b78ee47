// Package walls records externally detected whale walls: large resting
// orders submitted by an order-book watcher. The recorder validates the
// detection, applies the notional threshold rule, and persists at most one
// event per (exchange, symbol, side, rounded price, time bucket).
package walls

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"orderflow-lab/internal/domain"
	"orderflow-lab/internal/eventkey"
	"orderflow-lab/internal/observability"
	"orderflow-lab/internal/storage"
)

// Record outcome reasons for no-op successes.
const (
	ReasonBelowThreshold = "below-threshold"
	ReasonDuplicate      = "duplicate"
)

// Detection is a candidate wall observation submitted for recording.
// All numeric fields must be finite; side must be BID or ASK.
type Detection struct {
	Symbol         string  `json:"symbol"`
	Exchange       string  `json:"exchange"`
	Side           string  `json:"side"`
	Price          float64 `json:"price"`
	Quantity       float64 `json:"quantity"`
	NotionalValue  float64 `json:"notionalValue"`
	ThresholdValue float64 `json:"thresholdValue"`
}

// RecordResult is the structured outcome of a Record call. A no-op outcome
// (below threshold, duplicate bucket) is success with Stored false, never
// an error.
type RecordResult struct {
	Stored   bool   `json:"stored"`
	Reason   string `json:"reason,omitempty"`
	EventKey string `json:"eventKey,omitempty"`
}

// ValidationError indicates a malformed detection. It is rejected at the
// boundary with no side effects: nothing reaches storage.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid detection: %s %s", e.Field, e.Msg)
}

// Recorder applies the wall recording rules over a WallEventStore.
type Recorder struct {
	store  storage.WallEventStore
	now    func() time.Time
	logger *log.Logger
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithClock overrides the wall clock (used by tests to pin time buckets).
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		r.now = now
	}
}

// WithLogger sets the recorder's logger.
func WithLogger(logger *log.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// NewRecorder creates a Recorder over the given store.
func NewRecorder(store storage.WallEventStore, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:  store,
		now:    time.Now,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record validates and persists a wall detection.
//
// Outcomes:
//   - validation failure: (nil, *ValidationError), nothing written
//   - notional below threshold: stored:false, reason "below-threshold"
//   - same wall already recorded this bucket: stored:false, reason "duplicate"
//     (the engine's unique-violation never reaches the caller)
//   - otherwise: stored:true with the event key
//
// Any storage error other than the expected duplicate-key propagates; the
// caller must not assume the write happened.
func (r *Recorder) Record(ctx context.Context, d Detection) (*RecordResult, error) {
	if err := validate(d); err != nil {
		return nil, err
	}

	if d.NotionalValue < d.ThresholdValue {
		observability.RecordWallBelowThreshold()
		return &RecordResult{Stored: false, Reason: ReasonBelowThreshold}, nil
	}

	nowMs := r.now().UnixMilli()
	key := eventkey.Compute(d.Exchange, d.Symbol, d.Side, d.Price, nowMs)

	event := &domain.WhaleWallEvent{
		Symbol:         d.Symbol,
		Exchange:       d.Exchange,
		Side:           d.Side,
		Price:          eventkey.RoundPrice(d.Price),
		Quantity:       d.Quantity,
		NotionalValue:  d.NotionalValue,
		ThresholdValue: d.ThresholdValue,
		EventKey:       key,
		CreatedAtMs:    nowMs,
	}

	err := r.store.Insert(ctx, event)
	if errors.Is(err, storage.ErrDuplicateKey) {
		observability.RecordWallDuplicate()
		return &RecordResult{Stored: false, Reason: ReasonDuplicate, EventKey: key}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store wall event: %w", err)
	}

	observability.RecordWallStored(d.Exchange, d.Side)
	r.logger.Printf("recorded wall %s notional=%.2f threshold=%.2f", key, d.NotionalValue, d.ThresholdValue)

	return &RecordResult{Stored: true, EventKey: key}, nil
}

// Recent returns stored events newest first, optionally filtered by symbol.
// A non-empty symbol must pass the allow-list; limit is clamped by the store.
func (r *Recorder) Recent(ctx context.Context, symbol string, limit int) ([]*domain.WhaleWallEvent, error) {
	if symbol != "" && !domain.ValidSymbol(symbol) {
		return nil, &ValidationError{Field: "symbol", Msg: "does not match allowed pattern"}
	}
	return r.store.RecentBySymbol(ctx, symbol, limit)
}

// Clear deletes all events for a symbol and returns the count. A symbol
// with no events is not an error.
func (r *Recorder) Clear(ctx context.Context, symbol string) (int64, error) {
	if !domain.ValidSymbol(symbol) {
		return 0, &ValidationError{Field: "symbol", Msg: "does not match allowed pattern"}
	}

	deleted, err := r.store.DeleteBySymbol(ctx, symbol)
	if err != nil {
		return 0, err
	}
	observability.RecordWallsCleared(deleted)
	return deleted, nil
}

// validate rejects malformed detections before any side effect.
func validate(d Detection) error {
	if !domain.ValidSymbol(d.Symbol) {
		return &ValidationError{Field: "symbol", Msg: "does not match allowed pattern"}
	}
	if d.Exchange == "" {
		return &ValidationError{Field: "exchange", Msg: "is required"}
	}
	if !domain.ValidWallSide(d.Side) {
		return &ValidationError{Field: "side", Msg: "must be BID or ASK"}
	}

	for _, f := range []struct {
		name  string
		value float64
	}{
		{"price", d.Price},
		{"quantity", d.Quantity},
		{"notionalValue", d.NotionalValue},
		{"thresholdValue", d.ThresholdValue},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &ValidationError{Field: f.name, Msg: "must be finite"}
		}
		if f.value <= 0 {
			return &ValidationError{Field: f.name, Msg: "must be positive"}
		}
	}

	return nil
}
