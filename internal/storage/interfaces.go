package storage

import (
	"context"

	"orderflow-lab/internal/domain"
)

// Query limit bounds for RecentBySymbol. Caller-supplied limits are clamped
// into [MinQueryLimit, MaxQueryLimit]; zero means DefaultQueryLimit.
const (
	MinQueryLimit     = 10
	MaxQueryLimit     = 200
	DefaultQueryLimit = 50
)

// ClampLimit normalizes a caller-supplied query limit.
func ClampLimit(limit int) int {
	if limit == 0 {
		return DefaultQueryLimit
	}
	if limit < MinQueryLimit {
		return MinQueryLimit
	}
	if limit > MaxQueryLimit {
		return MaxQueryLimit
	}
	return limit
}

// WallEventStore provides access to whale_wall_events storage.
//
// Uniqueness on EventKey is the only concurrency-control mechanism for
// deduplication: concurrent inserts of the same key race at the engine's
// unique index and exactly one wins.
type WallEventStore interface {
	// Insert adds a new wall event. Returns ErrDuplicateKey if EventKey exists.
	Insert(ctx context.Context, e *domain.WhaleWallEvent) error

	// RecentBySymbol retrieves events newest first, optionally filtered by
	// symbol (empty symbol means all), capped at limit.
	RecentBySymbol(ctx context.Context, symbol string, limit int) ([]*domain.WhaleWallEvent, error)

	// DeleteBySymbol removes all events for a symbol and returns the count
	// deleted. A symbol with no events yields 0, not an error.
	DeleteBySymbol(ctx context.Context, symbol string) (int64, error)
}

// FlowSnapshotStore provides access to the flow_snapshots history archive.
type FlowSnapshotStore interface {
	// Insert appends a snapshot row. The archive is append-only and does
	// not enforce uniqueness.
	Insert(ctx context.Context, s *domain.FlowSnapshot) error

	// RecentBySymbol retrieves snapshots for a symbol, newest first,
	// capped at limit.
	RecentBySymbol(ctx context.Context, symbol string, limit int) ([]*domain.FlowSnapshot, error)
}
