package memory

import (
	"context"
	"sort"
	"sync"

	"orderflow-lab/internal/domain"
	"orderflow-lab/internal/storage"
)

// FlowSnapshotStore is an in-memory implementation of storage.FlowSnapshotStore.
type FlowSnapshotStore struct {
	mu   sync.RWMutex
	data []*domain.FlowSnapshot
}

// NewFlowSnapshotStore creates a new in-memory flow snapshot store.
func NewFlowSnapshotStore() *FlowSnapshotStore {
	return &FlowSnapshotStore{
		data: make([]*domain.FlowSnapshot, 0),
	}
}

// Insert appends a snapshot row. The archive is append-only.
func (s *FlowSnapshotStore) Insert(_ context.Context, snap *domain.FlowSnapshot) error {
	if snap == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *snap
	s.data = append(s.data, &copy)

	return nil
}

// RecentBySymbol retrieves snapshots for a symbol, newest first.
func (s *FlowSnapshotStore) RecentBySymbol(_ context.Context, symbol string, limit int) ([]*domain.FlowSnapshot, error) {
	limit = storage.ClampLimit(limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.FlowSnapshot
	for _, snap := range s.data {
		if snap.Symbol == symbol {
			copy := *snap
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ComputedAtMs > result[j].ComputedAtMs
	})

	if len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.FlowSnapshotStore = (*FlowSnapshotStore)(nil)
