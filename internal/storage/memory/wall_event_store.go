package memory

import (
	"context"
	"sort"
	"sync"

	"orderflow-lab/internal/domain"
	"orderflow-lab/internal/storage"
)

// WallEventStore is an in-memory implementation of storage.WallEventStore.
// The keys map mirrors the unique index on event_key: under the store mutex,
// the first insert of a key wins and later inserts observe ErrDuplicateKey.
type WallEventStore struct {
	mu     sync.RWMutex
	data   []*domain.WhaleWallEvent
	keys   map[string]bool
	nextID int64
}

// NewWallEventStore creates a new in-memory wall event store.
func NewWallEventStore() *WallEventStore {
	return &WallEventStore{
		data:   make([]*domain.WhaleWallEvent, 0),
		keys:   make(map[string]bool),
		nextID: 1,
	}
}

// Insert adds a new wall event. Returns ErrDuplicateKey if EventKey exists.
func (s *WallEventStore) Insert(_ context.Context, e *domain.WhaleWallEvent) error {
	if e == nil || e.EventKey == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keys[e.EventKey] {
		return storage.ErrDuplicateKey
	}

	// Store a copy
	copy := *e
	copy.ID = s.nextID
	s.nextID++
	e.ID = copy.ID
	s.data = append(s.data, &copy)
	s.keys[e.EventKey] = true

	return nil
}

// RecentBySymbol retrieves events newest first, optionally filtered by symbol.
func (s *WallEventStore) RecentBySymbol(_ context.Context, symbol string, limit int) ([]*domain.WhaleWallEvent, error) {
	limit = storage.ClampLimit(limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.WhaleWallEvent
	for _, e := range s.data {
		if symbol == "" || e.Symbol == symbol {
			copy := *e
			result = append(result, &copy)
		}
	}

	// Newest first; ties break by event_key for deterministic ordering
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAtMs != result[j].CreatedAtMs {
			return result[i].CreatedAtMs > result[j].CreatedAtMs
		}
		return result[i].EventKey < result[j].EventKey
	})

	if len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

// DeleteBySymbol removes all events for a symbol and returns the count deleted.
func (s *WallEventStore) DeleteBySymbol(_ context.Context, symbol string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []*domain.WhaleWallEvent
	var deleted int64
	for _, e := range s.data {
		if e.Symbol == symbol {
			delete(s.keys, e.EventKey)
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	s.data = kept

	return deleted, nil
}

// Verify interface compliance at compile time.
var _ storage.WallEventStore = (*WallEventStore)(nil)
