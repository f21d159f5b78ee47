package binance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_RecentTrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/trades" {
			t.Errorf("expected path /api/v3/trades, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
			t.Errorf("expected symbol BTCUSDT, got %s", got)
		}
		if got := r.URL.Query().Get("limit"); got != "500" {
			t.Errorf("expected limit 500, got %s", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": 1, "price": "50000.10", "qty": "0.5", "time": 1704067200000, "isBuyerMaker": false},
			{"id": 2, "price": "50000.20", "qty": "1.5", "time": 1704067201000, "isBuyerMaker": true}
		]`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	ctx := context.Background()

	trades, partial, err := client.RecentTrades(ctx, "BTCUSDT", 500)
	if err != nil {
		t.Fatalf("RecentTrades: %v", err)
	}
	if partial {
		t.Error("2 of 500 requested records should not be partial")
	}
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}

	if trades[0].Price != 50000.10 {
		t.Errorf("expected price 50000.10, got %v", trades[0].Price)
	}
	if trades[0].Quantity != 0.5 {
		t.Errorf("expected quantity 0.5, got %v", trades[0].Quantity)
	}
	if trades[0].Timestamp != 1704067200000 {
		t.Errorf("expected timestamp 1704067200000, got %d", trades[0].Timestamp)
	}
	if trades[0].IsBuyerMaker {
		t.Error("first trade should not be buyer-maker")
	}
	if !trades[1].IsBuyerMaker {
		t.Error("second trade should be buyer-maker")
	}
}

func TestClient_RecentTrades_PartialAtCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, "[")
		for i := 0; i < MaxTradeLimit; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"id": %d, "price": "100.0", "qty": "1.0", "time": %d, "isBuyerMaker": false}`, i, 1704067200000+int64(i))
		}
		fmt.Fprint(w, "]")
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	trades, partial, err := client.RecentTrades(context.Background(), "BTCUSDT", MaxTradeLimit)
	if err != nil {
		t.Fatalf("RecentTrades: %v", err)
	}
	if !partial {
		t.Error("a response at the upstream cap should flag partial coverage")
	}
	if len(trades) != MaxTradeLimit {
		t.Errorf("expected %d trades, got %d", MaxTradeLimit, len(trades))
	}
}

func TestClient_RecentTrades_OversizedLimitClamped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "1000" {
			t.Errorf("expected limit clamped to 1000, got %s", got)
		}
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	if _, _, err := client.RecentTrades(context.Background(), "BTCUSDT", 5000); err != nil {
		t.Fatalf("RecentTrades: %v", err)
	}
}

func TestClient_RecentTrades_SkipsBadNumerics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": 1, "price": "not-a-number", "qty": "0.5", "time": 1704067200000, "isBuyerMaker": false},
			{"id": 2, "price": "50000.20", "qty": "", "time": 1704067201000, "isBuyerMaker": true},
			{"id": 3, "price": "50000.30", "qty": "2.0", "time": 1704067202000, "isBuyerMaker": false}
		]`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	trades, _, err := client.RecentTrades(context.Background(), "BTCUSDT", 500)
	if err != nil {
		t.Fatalf("RecentTrades: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("expected 1 parseable trade, got %d", len(trades))
	}
	if trades[0].Price != 50000.30 {
		t.Errorf("expected the valid trade, got price %v", trades[0].Price)
	}
}

func TestClient_RecentTrades_UpstreamStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte(`{"code": -1003, "msg": "Too many requests"}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	_, _, err := client.RecentTrades(context.Background(), "BTCUSDT", 500)
	if err == nil {
		t.Fatal("expected error for non-200 status")
	}

	var upstreamErr *UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("expected UpstreamError, got %T: %v", err, err)
	}
	if upstreamErr.Status != http.StatusTeapot {
		t.Errorf("expected status %d, got %d", http.StatusTeapot, upstreamErr.Status)
	}
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Error("UpstreamError should match ErrUpstreamUnavailable")
	}
}

func TestClient_RecentTrades_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	_, _, err := client.RecentTrades(context.Background(), "BTCUSDT", 500)
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestClient_RecentTrades_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // Closed immediately so connections are refused

	client := NewClient(WithBaseURL(server.URL))

	_, _, err := client.RecentTrades(context.Background(), "BTCUSDT", 500)
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}
