// Package main runs the order-flow API server:
// - Order-flow summaries computed from Binance recent trades
// - Whale-wall event recording, listing and clearing
// - Archived flow snapshot history
// - Health and Prometheus metrics endpoints
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"orderflow-lab/internal/binance"
	"orderflow-lab/internal/cache"
	"orderflow-lab/internal/config"
	"orderflow-lab/internal/ingest"
	"orderflow-lab/internal/server"
	"orderflow-lab/internal/storage"
	chstore "orderflow-lab/internal/storage/clickhouse"
	"orderflow-lab/internal/storage/memory"
	pgstore "orderflow-lab/internal/storage/postgres"
	"orderflow-lab/internal/walls"
)

func main() {
	// Load .env file if it exists; system env vars win.
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Parse flags (env vars as defaults)
	listenAddr := flag.String("listen-addr", cfg.ListenAddr, "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.ClickhouseDSN, "ClickHouse connection string (empty disables flow history)")
	redisURL := flag.String("redis-url", cfg.RedisURL, "Redis URL for summary caching (empty disables cache)")
	useMemory := flag.Bool("use-memory", cfg.UseMemory, "Use in-memory storage instead of PostgreSQL/ClickHouse")

	flag.Parse()

	cfg.ListenAddr = *listenAddr
	cfg.PostgresDSN = *postgresDSN
	cfg.ClickhouseDSN = *clickhouseDSN
	cfg.RedisURL = *redisURL
	cfg.UseMemory = *useMemory

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Create stores
	wallStore, snapshotStore, cleanup, err := createStores(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// Summary cache is optional
	var summaryCache server.SummaryCache
	if cfg.RedisURL != "" {
		c, err := cache.New(ctx, cfg.RedisURL, cfg.CacheTTL())
		if err != nil {
			logger.Fatalf("Failed to connect to redis: %v", err)
		}
		defer c.Close()
		summaryCache = c
		logger.Printf("Summary cache enabled (TTL %v)", cfg.CacheTTL())
	}

	client := binance.NewClient(
		binance.WithBaseURL(cfg.BinanceBaseURL),
		binance.WithTimeout(time.Duration(cfg.UpstreamTimeout)*time.Second),
	)

	srv := server.New(server.Options{
		TradeSource:    ingest.NewBinanceSource(client),
		Recorder:       walls.NewRecorder(wallStore, walls.WithLogger(logger)),
		Snapshots:      snapshotStore,
		Cache:          summaryCache,
		RequestTimeout: cfg.RequestTimeout(),
		Logger:         logger,
	})

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Routes(),
	}

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Shutdown error: %v", err)
		}
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

	logger.Printf("Starting HTTP server on %s", cfg.ListenAddr)
	err = httpServer.ListenAndServe()
	done <- err
	cancel()

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates the wall event and snapshot stores based on config.
func createStores(ctx context.Context, cfg *config.Config) (storage.WallEventStore, storage.FlowSnapshotStore, func(), error) {
	if cfg.UseMemory {
		return memory.NewWallEventStore(), memory.NewFlowSnapshotStore(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, nil, err
	}

	// Without ClickHouse the history endpoint is disabled; everything
	// else keeps working.
	var snapshots storage.FlowSnapshotStore
	cleanup := func() { pool.Close() }

	if cfg.ClickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, cfg.ClickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		snapshots = chstore.NewFlowSnapshotStore(conn)
		cleanup = func() {
			conn.Close()
			pool.Close()
		}
	}

	return pgstore.NewWallEventStore(pool), snapshots, cleanup, nil
}
