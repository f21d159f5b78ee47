package clickhouse

import (
	"context"
	"fmt"
	"time"

	"orderflow-lab/internal/domain"
	"orderflow-lab/internal/observability"
	"orderflow-lab/internal/storage"
)

// FlowSnapshotStore implements storage.FlowSnapshotStore using ClickHouse.
// The archive is append-only: MergeTree enforces no uniqueness and none is
// needed, snapshots are best-effort history rows.
type FlowSnapshotStore struct {
	conn *Conn
}

// NewFlowSnapshotStore creates a new FlowSnapshotStore.
func NewFlowSnapshotStore(conn *Conn) *FlowSnapshotStore {
	return &FlowSnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.FlowSnapshotStore = (*FlowSnapshotStore)(nil)

// Insert appends a snapshot row.
func (s *FlowSnapshotStore) Insert(ctx context.Context, snap *domain.FlowSnapshot) error {
	query := `
		INSERT INTO flow_snapshots (
			symbol, exchange, window_seconds, buy_volume, buy_count, sell_volume, sell_count, delta, computed_at_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	start := time.Now()
	err := s.conn.Exec(ctx, query,
		snap.Symbol,
		snap.Exchange,
		uint32(snap.WindowSeconds),
		snap.BuyVolume,
		uint32(snap.BuyCount),
		snap.SellVolume,
		uint32(snap.SellCount),
		snap.Delta,
		uint64(snap.ComputedAtMs),
	)
	observability.RecordDBQuery("clickhouse", "insert_flow_snapshot", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("insert flow snapshot: %w", err)
	}

	return nil
}

// RecentBySymbol retrieves snapshots for a symbol, newest first.
func (s *FlowSnapshotStore) RecentBySymbol(ctx context.Context, symbol string, limit int) ([]*domain.FlowSnapshot, error) {
	limit = storage.ClampLimit(limit)

	query := `
		SELECT symbol, exchange, window_seconds, buy_volume, buy_count, sell_volume, sell_count, delta, computed_at_ms
		FROM flow_snapshots
		WHERE symbol = ?
		ORDER BY computed_at_ms DESC
		LIMIT ?
	`

	start := time.Now()
	rows, err := s.conn.Query(ctx, query, symbol, limit)
	observability.RecordDBQuery("clickhouse", "recent_flow_snapshots", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("query recent flow snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*domain.FlowSnapshot
	for rows.Next() {
		var (
			snap          domain.FlowSnapshot
			windowSeconds uint32
			buyCount      uint32
			sellCount     uint32
			computedAtMs  uint64
		)

		err := rows.Scan(
			&snap.Symbol,
			&snap.Exchange,
			&windowSeconds,
			&snap.BuyVolume,
			&buyCount,
			&snap.SellVolume,
			&sellCount,
			&snap.Delta,
			&computedAtMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan flow snapshot row: %w", err)
		}

		snap.WindowSeconds = int(windowSeconds)
		snap.BuyCount = int(buyCount)
		snap.SellCount = int(sellCount)
		snap.ComputedAtMs = int64(computedAtMs)
		snaps = append(snaps, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate flow snapshot rows: %w", err)
	}

	return snaps, nil
}
