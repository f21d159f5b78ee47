package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"orderflow-lab/internal/domain"
	"orderflow-lab/internal/storage"
)

func wallEvent(key, symbol string, createdAtMs int64) *domain.WhaleWallEvent {
	return &domain.WhaleWallEvent{
		Symbol:         symbol,
		Exchange:       "binance",
		Side:           domain.WallSideBid,
		Price:          50000.0,
		Quantity:       12.5,
		NotionalValue:  625000.0,
		ThresholdValue: 500000.0,
		EventKey:       key,
		CreatedAtMs:    createdAtMs,
	}
}

func TestWallEventStore_InsertAssignsID(t *testing.T) {
	store := NewWallEventStore()
	ctx := context.Background()

	e := wallEvent("k1", "BTCUSDT", 1000)
	if err := store.Insert(ctx, e); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if e.ID == 0 {
		t.Error("Insert should assign a non-zero ID")
	}

	e2 := wallEvent("k2", "BTCUSDT", 2000)
	if err := store.Insert(ctx, e2); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if e2.ID == e.ID {
		t.Errorf("IDs should be unique, both got %d", e.ID)
	}
}

func TestWallEventStore_DuplicateKey(t *testing.T) {
	store := NewWallEventStore()
	ctx := context.Background()

	if err := store.Insert(ctx, wallEvent("k1", "BTCUSDT", 1000)); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	// Same event key, different payload
	dup := wallEvent("k1", "BTCUSDT", 2000)
	dup.Price = 50001.0
	err := store.Insert(ctx, dup)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestWallEventStore_InvalidInput(t *testing.T) {
	store := NewWallEventStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil event, got %v", err)
	}

	e := wallEvent("", "BTCUSDT", 1000)
	if err := store.Insert(ctx, e); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty key, got %v", err)
	}
}

func TestWallEventStore_RecentBySymbol(t *testing.T) {
	store := NewWallEventStore()
	ctx := context.Background()

	events := []*domain.WhaleWallEvent{
		wallEvent("k1", "BTCUSDT", 1000),
		wallEvent("k2", "ETHUSDT", 2000),
		wallEvent("k3", "BTCUSDT", 3000),
		wallEvent("k4", "BTCUSDT", 2000),
	}
	for _, e := range events {
		if err := store.Insert(ctx, e); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	result, err := store.RecentBySymbol(ctx, "BTCUSDT", 50)
	if err != nil {
		t.Fatalf("RecentBySymbol failed: %v", err)
	}

	if len(result) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(result))
	}

	// Newest first, ties break ascending by event key
	want := []string{"k3", "k4", "k1"}
	for i, key := range want {
		if result[i].EventKey != key {
			t.Errorf("Result %d should be %s, got %s", i, key, result[i].EventKey)
		}
	}
}

func TestWallEventStore_RecentAllSymbols(t *testing.T) {
	store := NewWallEventStore()
	ctx := context.Background()

	if err := store.Insert(ctx, wallEvent("k1", "BTCUSDT", 1000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, wallEvent("k2", "ETHUSDT", 2000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// Empty symbol means no filter
	result, err := store.RecentBySymbol(ctx, "", 50)
	if err != nil {
		t.Fatalf("RecentBySymbol failed: %v", err)
	}
	if len(result) != 2 {
		t.Errorf("Expected 2 results, got %d", len(result))
	}
}

func TestWallEventStore_RecentClampsLimit(t *testing.T) {
	store := NewWallEventStore()
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		e := wallEvent(fmt.Sprintf("k%d", i), "BTCUSDT", int64(1000+i))
		if err := store.Insert(ctx, e); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	// Limits below the minimum clamp up to it
	result, err := store.RecentBySymbol(ctx, "BTCUSDT", 1)
	if err != nil {
		t.Fatalf("RecentBySymbol failed: %v", err)
	}
	if len(result) != storage.MinQueryLimit {
		t.Errorf("Expected %d results, got %d", storage.MinQueryLimit, len(result))
	}
}

func TestWallEventStore_DeleteBySymbol(t *testing.T) {
	store := NewWallEventStore()
	ctx := context.Background()

	if err := store.Insert(ctx, wallEvent("k1", "BTCUSDT", 1000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, wallEvent("k2", "BTCUSDT", 2000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, wallEvent("k3", "ETHUSDT", 3000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	deleted, err := store.DeleteBySymbol(ctx, "BTCUSDT")
	if err != nil {
		t.Fatalf("DeleteBySymbol failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted, got %d", deleted)
	}

	// Deleting again is a no-op, not an error
	deleted, err = store.DeleteBySymbol(ctx, "BTCUSDT")
	if err != nil {
		t.Fatalf("Second DeleteBySymbol failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("Expected 0 deleted, got %d", deleted)
	}

	// Keys are freed for reuse after delete
	if err := store.Insert(ctx, wallEvent("k1", "BTCUSDT", 4000)); err != nil {
		t.Errorf("Insert after delete should succeed, got %v", err)
	}

	// Other symbols untouched
	result, err := store.RecentBySymbol(ctx, "ETHUSDT", 50)
	if err != nil {
		t.Fatalf("RecentBySymbol failed: %v", err)
	}
	if len(result) != 1 {
		t.Errorf("Expected 1 ETHUSDT event, got %d", len(result))
	}
}

func TestWallEventStore_StoresCopies(t *testing.T) {
	store := NewWallEventStore()
	ctx := context.Background()

	e := wallEvent("k1", "BTCUSDT", 1000)
	if err := store.Insert(ctx, e); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// Mutating the inserted value must not affect stored data
	e.Price = 99999.0

	result, err := store.RecentBySymbol(ctx, "BTCUSDT", 50)
	if err != nil {
		t.Fatalf("RecentBySymbol failed: %v", err)
	}
	if result[0].Price != 50000.0 {
		t.Errorf("Stored price mutated: got %f", result[0].Price)
	}
}

func TestWallEventStore_ConcurrentInsertSameKey(t *testing.T) {
	store := NewWallEventStore()
	ctx := context.Background()

	const goroutines = 16
	var wg sync.WaitGroup
	errs := make(chan error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- store.Insert(ctx, wallEvent("shared", "BTCUSDT", int64(i)))
		}(i)
	}
	wg.Wait()
	close(errs)

	var ok, dup int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, storage.ErrDuplicateKey):
			dup++
		default:
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	if ok != 1 {
		t.Errorf("Exactly one insert should win, got %d", ok)
	}
	if dup != goroutines-1 {
		t.Errorf("Expected %d duplicates, got %d", goroutines-1, dup)
	}
}
