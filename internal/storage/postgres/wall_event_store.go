package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"orderflow-lab/internal/domain"
	"orderflow-lab/internal/observability"
	"orderflow-lab/internal/storage"
)

// WallEventStore implements storage.WallEventStore using PostgreSQL.
// Deduplication rides entirely on the unique index over event_key.
type WallEventStore struct {
	pool *Pool
}

// NewWallEventStore creates a new WallEventStore.
func NewWallEventStore(pool *Pool) *WallEventStore {
	return &WallEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.WallEventStore = (*WallEventStore)(nil)

// Insert adds a new wall event. Returns ErrDuplicateKey if event_key exists.
func (s *WallEventStore) Insert(ctx context.Context, e *domain.WhaleWallEvent) error {
	query := `
		INSERT INTO whale_wall_events (
			symbol, exchange, side, price, quantity, notional_value, threshold_value, event_key, created_at_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	start := time.Now()
	err := s.pool.QueryRow(ctx, query,
		e.Symbol,
		e.Exchange,
		e.Side,
		e.Price,
		e.Quantity,
		e.NotionalValue,
		e.ThresholdValue,
		e.EventKey,
		e.CreatedAtMs,
	).Scan(&e.ID)
	if err != nil {
		if isDuplicateKeyError(err) {
			// Expected outcome of the dedupe race, not a query failure.
			observability.RecordDBQuery("postgres", "insert_wall_event", time.Since(start).Seconds(), nil)
			return storage.ErrDuplicateKey
		}
		observability.RecordDBQuery("postgres", "insert_wall_event", time.Since(start).Seconds(), err)
		return fmt.Errorf("insert wall event: %w", err)
	}
	observability.RecordDBQuery("postgres", "insert_wall_event", time.Since(start).Seconds(), nil)
	return nil
}

// RecentBySymbol retrieves events newest first, optionally filtered by symbol.
// Ties on created_at_ms break by event_key for deterministic ordering.
func (s *WallEventStore) RecentBySymbol(ctx context.Context, symbol string, limit int) ([]*domain.WhaleWallEvent, error) {
	limit = storage.ClampLimit(limit)

	start := time.Now()
	var (
		rows pgx.Rows
		err  error
	)
	if symbol == "" {
		query := `
			SELECT id, symbol, exchange, side, price, quantity, notional_value, threshold_value, event_key, created_at_ms
			FROM whale_wall_events
			ORDER BY created_at_ms DESC, event_key ASC
			LIMIT $1
		`
		rows, err = s.pool.Query(ctx, query, limit)
	} else {
		query := `
			SELECT id, symbol, exchange, side, price, quantity, notional_value, threshold_value, event_key, created_at_ms
			FROM whale_wall_events
			WHERE symbol = $1
			ORDER BY created_at_ms DESC, event_key ASC
			LIMIT $2
		`
		rows, err = s.pool.Query(ctx, query, symbol, limit)
	}
	observability.RecordDBQuery("postgres", "recent_wall_events", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("query recent wall events: %w", err)
	}
	defer rows.Close()

	return scanWallEvents(rows)
}

// DeleteBySymbol removes all events for a symbol and returns the count deleted.
func (s *WallEventStore) DeleteBySymbol(ctx context.Context, symbol string) (int64, error) {
	start := time.Now()
	tag, err := s.pool.Exec(ctx, `DELETE FROM whale_wall_events WHERE symbol = $1`, symbol)
	observability.RecordDBQuery("postgres", "delete_wall_events", time.Since(start).Seconds(), err)
	if err != nil {
		return 0, fmt.Errorf("delete wall events by symbol: %w", err)
	}
	return tag.RowsAffected(), nil
}

// scanWallEvents scans multiple rows into a slice of WhaleWallEvent.
func scanWallEvents(rows pgx.Rows) ([]*domain.WhaleWallEvent, error) {
	var events []*domain.WhaleWallEvent

	for rows.Next() {
		var e domain.WhaleWallEvent

		err := rows.Scan(
			&e.ID,
			&e.Symbol,
			&e.Exchange,
			&e.Side,
			&e.Price,
			&e.Quantity,
			&e.NotionalValue,
			&e.ThresholdValue,
			&e.EventKey,
			&e.CreatedAtMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan wall event row: %w", err)
		}

		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wall event rows: %w", err)
	}

	return events, nil
}
