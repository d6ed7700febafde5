package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"portfolio-pricing-lab/internal/refdata"
	"portfolio-pricing-lab/internal/storage/migrations"
	pgstore "portfolio-pricing-lab/internal/storage/postgres"
)

func main() {
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	timeout := flag.Duration("timeout", 30*time.Second, "Overall timeout")

	flag.Parse()

	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags)

	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("Connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("Apply migrations: %v", err)
	}
	logger.Println("Migrations applied")

	store := pgstore.NewReferenceStore(pool)
	if err := refdata.SeedSample(ctx, store); err != nil {
		logger.Fatalf("Seed sample universe: %v", err)
	}

	defs, err := refdata.Load(ctx, store)
	if err != nil {
		logger.Fatalf("Verify reference data: %v", err)
	}
	logger.Printf("Seeded universe: %d stocks, %d options", len(defs.Stocks), len(defs.Options))
}
