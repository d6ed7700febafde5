package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio-pricing-lab/internal/domain"
	"portfolio-pricing-lab/internal/evolve"
	"portfolio-pricing-lab/internal/marketbus"
	"portfolio-pricing-lab/internal/observability"
	"portfolio-pricing-lab/internal/positions"
	"portfolio-pricing-lab/internal/pricing"
	"portfolio-pricing-lab/internal/refdata"
	"portfolio-pricing-lab/internal/reporting"
	"portfolio-pricing-lab/internal/storage"
	chstore "portfolio-pricing-lab/internal/storage/clickhouse"
	"portfolio-pricing-lab/internal/storage/memory"
	"portfolio-pricing-lab/internal/storage/migrations"
	pgstore "portfolio-pricing-lab/internal/storage/postgres"
	"portfolio-pricing-lab/internal/valuation"
)

func main() {
	// Parse flags
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string for reference data")
	useMemory := flag.Bool("use-memory", false, "Use an in-memory seeded reference store instead of PostgreSQL")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for valuation history (empty to disable)")
	positionsPath := flag.String("positions", "", "Path to positions CSV (ticker,quantity)")
	tickInterval := flag.Duration("tick-interval", marketbus.DefaultTickInterval, "Interval between market ticks")
	tickJitter := flag.Duration("tick-jitter", 0, "Extra random delay added to each tick interval")
	deltaT := flag.Float64("delta-t", evolve.DefaultDeltaT, "Simulated seconds advanced per tick")
	horizon := flag.Float64("horizon", evolve.DefaultHorizon, "Simulation horizon in seconds")
	clampMin := flag.Float64("clamp-min", evolve.DefaultMinPrice, "Price floor after each step")
	clampMax := flag.Float64("clamp-max", evolve.DefaultMaxPrice, "Price ceiling after each step")
	riskFreeRate := flag.Float64("risk-free-rate", pricing.DefaultRiskFreeRate, "Annual risk-free rate for option pricing")
	multiplier := flag.Int64("multiplier", valuation.DefaultContractMultiplier, "Option contract multiplier")
	seed := flag.Int64("seed", 0, "Random seed for price evolution (0 = time-based)")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[repricer] ", log.LstdFlags)

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

	if *positionsPath == "" {
		logger.Fatal("--positions is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	// Reference data
	refStore, cleanup, err := openReferenceStore(ctx, logger, *postgresDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Open reference store: %v", err)
	}
	defer cleanup()

	defs, err := refdata.Load(ctx, refStore)
	if err != nil {
		logger.Fatalf("Load reference data: %v", err)
	}
	logger.Printf("Loaded %d stocks, %d options", len(defs.Stocks), len(defs.Options))

	// Portfolio
	portfolio, err := positions.LoadFile(*positionsPath, defs, logger)
	if err != nil {
		logger.Fatalf("Load positions: %v", err)
	}
	logger.Printf("Loaded %d positions", len(portfolio))

	// Report sinks
	var sinks []valuation.ReportSink
	sinks = append(sinks, reporting.NewConsoleSink(os.Stdout))
	if *clickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("Connect to clickhouse: %v", err)
		}
		defer conn.Close()

		if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
			logger.Fatalf("Apply clickhouse migrations: %v", err)
		}
		sinks = append(sinks, reporting.NewHistorySink(chstore.NewReportHistoryStore(conn), logger, 0))
		logger.Println("Valuation history enabled")
	}

	valuator, err := valuation.New(valuation.Options{
		Positions:          portfolio,
		Sink:               reporting.NewMultiSink(sinks...),
		RiskFreeRate:       *riskFreeRate,
		ContractMultiplier: *multiplier,
	})
	if err != nil {
		logger.Fatalf("Create valuator: %v", err)
	}

	// Market bus
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	evolver := evolve.NewEvolver(evolve.Params{
		DeltaT:   *deltaT,
		Horizon:  *horizon,
		MinPrice: *clampMin,
		MaxPrice: *clampMax,
	}, rand.New(rand.NewSource(rngSeed)))

	initial := domain.NewMarketSnapshot(0, defs.InitialQuotes())
	bus, err := marketbus.New(initial, marketbus.Options{
		Evolver:  evolver,
		Interval: *tickInterval,
		Jitter:   *tickJitter,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatalf("Create market bus: %v", err)
	}
	if err := bus.Subscribe(valuator); err != nil {
		logger.Fatalf("Subscribe valuator: %v", err)
	}

	logger.Printf("Starting repricing loop (interval=%s, seed=%d)", *tickInterval, rngSeed)
	if err := bus.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Market bus stopped: %v", err)
	}
	logger.Println("Shutdown complete")
}

// openReferenceStore returns the configured reference store and a cleanup
// function. Memory mode seeds the demo universe so the binary is runnable
// without a database.
func openReferenceStore(ctx context.Context, logger *log.Logger, dsn string, useMemory bool) (storage.ReferenceStore, func(), error) {
	if useMemory {
		store := memory.NewReferenceStore()
		if err := refdata.SeedSample(ctx, store); err != nil {
			return nil, nil, err
		}
		logger.Println("Using in-memory reference store with sample universe")
		return store, func() {}, nil
	}

	if dsn == "" {
		return nil, nil, errors.New("either --postgres-dsn or --use-memory is required")
	}

	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	return pgstore.NewReferenceStore(pool), pool.Close, nil
}
