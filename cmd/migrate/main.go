// Package main applies the embedded schema migrations to PostgreSQL
// and, if configured, ClickHouse.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"orderflow-lab/internal/storage/clickhouse"
	"orderflow-lab/internal/storage/migrations"
	"orderflow-lab/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (empty to skip)")
	timeout := flag.Duration("timeout", 60*time.Second, "Migration timeout")

	flag.Parse()

	logger := log.New(os.Stdout, "[migrate] ", log.LstdFlags|log.Lshortfile)

	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := postgres.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("Connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("Run postgres migrations: %v", err)
	}
	logger.Println("PostgreSQL migrations applied")

	if *clickhouseDSN != "" {
		conn, err := clickhouse.NewConn(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("Connect to clickhouse: %v", err)
		}
		defer conn.Close()

		if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
			logger.Fatalf("Run clickhouse migrations: %v", err)
		}
		logger.Println("ClickHouse migrations applied")
	}

	logger.Println("Done")
}
