// Package main runs the flow snapshot recorder: it subscribes to live
// Binance trade streams for the configured symbols, keeps a rolling
// window of trades per symbol, and archives an order-flow snapshot into
// ClickHouse on a fixed interval.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"orderflow-lab/internal/binance"
	"orderflow-lab/internal/config"
	"orderflow-lab/internal/domain"
	"orderflow-lab/internal/ingest"
	"orderflow-lab/internal/observability"
	"orderflow-lab/internal/orderflow"
	"orderflow-lab/internal/storage"
	chstore "orderflow-lab/internal/storage/clickhouse"
	"orderflow-lab/internal/storage/memory"
)

func main() {
	// Load .env file if it exists; system env vars win.
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Parse flags (env vars as defaults)
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.ClickhouseDSN, "ClickHouse connection string")
	wsEndpoint := flag.String("ws-endpoint", cfg.BinanceWSEndpoint, "Binance WebSocket stream endpoint")
	snapshotInterval := flag.Duration("snapshot-interval", cfg.SnapshotInterval(), "How often to archive a snapshot per symbol")
	windowSeconds := flag.Int("window-seconds", cfg.SnapshotWindowSec, "Aggregation window for archived snapshots")
	useMemory := flag.Bool("use-memory", cfg.UseMemory, "Use in-memory storage instead of ClickHouse")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[record] ", log.LstdFlags|log.Lshortfile)

	if len(cfg.Symbols) == 0 {
		logger.Fatal("No symbols configured. Set SYMBOLS")
	}
	for _, symbol := range cfg.Symbols {
		if !domain.ValidSymbol(symbol) {
			logger.Fatalf("Invalid symbol %q", symbol)
		}
	}
	window := ingest.ClampWindow(*windowSeconds)

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Create snapshot store
	var snapshots storage.FlowSnapshotStore = memory.NewFlowSnapshotStore()
	if !*useMemory {
		if *clickhouseDSN == "" {
			logger.Fatal("--clickhouse-dsn is required (use --use-memory for in-memory storage)")
		}
		conn, err := chstore.NewConn(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("Failed to connect to clickhouse: %v", err)
		}
		defer conn.Close()
		snapshots = chstore.NewFlowSnapshotStore(conn)
	}

	// Channel to signal main goroutine completion
	done := make(chan error, 1)

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	logger.Printf("Recording %v every %v over a %ds window", cfg.Symbols, *snapshotInterval, window)
	err = run(ctx, logger, *wsEndpoint, cfg.Symbols, window, *snapshotInterval, snapshots)

	// Signal completion to shutdown handler
	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// run starts one recorder per symbol and blocks until all stop.
func run(ctx context.Context, logger *log.Logger, wsEndpoint string, symbols []string, windowSeconds int, interval time.Duration, snapshots storage.FlowSnapshotStore) error {
	errCh := make(chan error, len(symbols))
	var wg sync.WaitGroup

	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			rec := &recorder{
				symbol:        symbol,
				windowSeconds: windowSeconds,
				interval:      interval,
				stream:        binance.NewTradeStream(wsEndpoint, nil, logger),
				snapshots:     snapshots,
				logger:        logger,
			}
			if err := rec.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("record %s: %w", symbol, err)
			}
		}(symbol)
	}

	go func() {
		wg.Wait()
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		wg.Wait()
		return ctx.Err()
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return err
	}
}

// recorder consumes one symbol's trade stream and archives snapshots.
type recorder struct {
	symbol        string
	windowSeconds int
	interval      time.Duration
	stream        *binance.TradeStream
	snapshots     storage.FlowSnapshotStore
	logger        *log.Logger

	// trades is the rolling buffer, oldest first.
	trades []domain.Trade
}

func (r *recorder) run(ctx context.Context) error {
	trades := make(chan domain.Trade, 256)

	streamErr := make(chan error, 1)
	go func() {
		streamErr <- r.stream.Run(ctx, r.symbol, trades)
	}()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-streamErr:
			return err
		case t := <-trades:
			observability.RecordStreamTrade()
			r.trades = append(r.trades, t)
		case now := <-ticker.C:
			r.prune(now)
			r.archive(ctx, now)
		}
	}
}

// prune drops trades that fell out of the aggregation window.
func (r *recorder) prune(now time.Time) {
	cutoff := now.UnixMilli() - int64(r.windowSeconds)*1000
	i := 0
	for i < len(r.trades) && r.trades[i].Timestamp < cutoff {
		i++
	}
	if i > 0 {
		r.trades = append(r.trades[:0], r.trades[i:]...)
	}
}

func (r *recorder) archive(ctx context.Context, now time.Time) {
	summary := orderflow.Aggregate(r.trades, r.symbol, binance.Exchange, r.windowSeconds, now)
	observability.RecordSummaryComputed(r.symbol)

	if err := r.snapshots.Insert(ctx, domain.SnapshotFromSummary(&summary)); err != nil {
		r.logger.Printf("Archive snapshot for %s: %v", r.symbol, err)
		return
	}
	observability.RecordSnapshotArchived()
}
